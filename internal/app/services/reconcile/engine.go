// internal/app/services/reconcile/engine.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	pendingstore "github.com/dalemusser/contributor/internal/app/store/pending"
	resourcestore "github.com/dalemusser/contributor/internal/app/store/resources"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/geocode"
	"github.com/dalemusser/contributor/internal/app/system/metrics"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/app/system/notify"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Resources is the published-listing storage the engine writes to.
type Resources interface {
	Create(ctx context.Context, r models.Resource) (models.Resource, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Resource, error)
	GetByOrgName(ctx context.Context, orgName string) (models.Resource, error)
	List(ctx context.Context, includeRemoved bool) ([]models.Resource, error)
	Update(ctx context.Context, id primitive.ObjectID, fields models.ResourceFields) (resourcestore.UpdateResult, error)
	SetRemoved(ctx context.Context, id primitive.ObjectID) error
	UpsertByOrgName(ctx context.Context, fields models.ResourceFields) (primitive.ObjectID, bool, error)
}

// Pending is the review queue.
type Pending interface {
	Create(ctx context.Context, p models.PendingSubmission) (models.PendingSubmission, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.PendingSubmission, error)
	List(ctx context.Context) ([]models.PendingSubmission, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Approve actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// ApproveResult describes what an approval did to the directory.
type ApproveResult struct {
	Action     string             `json:"action"`
	ResourceID primitive.ObjectID `json:"resource_id"`
	Resource   *models.Resource   `json:"resource,omitempty"`
	Matched    int64              `json:"matched"`
	Modified   int64              `json:"modified"`
}

// SeedResult counts the outcome of a bulk seed.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Engine reconciles untrusted submissions into the published directory.
type Engine struct {
	resources Resources
	pending   Pending
	geo       geocode.Geocoder
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// New wires an Engine. geo, notifier and m may be nil.
func New(resources Resources, pending Pending, geo geocode.Geocoder, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *Engine {
	if geo == nil {
		geo = geocode.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}
	return &Engine{
		resources: resources,
		pending:   pending,
		geo:       geo,
		notifier:  notifier,
		metrics:   m,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest normalizes a raw form submission and queues it for review.
// Nothing is published.
func (e *Engine) Ingest(ctx context.Context, raw map[string]any) (models.PendingSubmission, error) {
	if len(raw) == 0 {
		return models.PendingSubmission{}, apperr.Validation("submission is empty")
	}
	c := canonicalize(raw)

	add, err := parseAdd(c)
	if err != nil {
		return models.PendingSubmission{}, err
	}
	fields, err := buildFields(c)
	if err != nil {
		return models.PendingSubmission{}, err
	}

	p := models.PendingSubmission{
		ResourceFields: fields,
		Add:            add,
		SubmittedAt:    e.now(),
	}
	if s, ok := plainText(c[keySubmittedBy]); ok {
		p.SubmittedBy = s
	}
	if s, ok := plainText(c[keySubmitterEmail]); ok {
		p.SubmitterEmail = normalize.Email(s)
	}

	if add {
		if err := validateFull(fields); err != nil {
			return models.PendingSubmission{}, err
		}
	} else {
		if err := e.resolveOriginal(ctx, &p, c); err != nil {
			return models.PendingSubmission{}, err
		}
		if err := validatePartial(fields); err != nil {
			return models.PendingSubmission{}, err
		}
	}

	e.fillCoordinates(ctx, &p.ResourceFields)

	created, err := e.pending.Create(ctx, p)
	if err != nil {
		return models.PendingSubmission{}, fmt.Errorf("queue submission: %w", err)
	}
	e.metrics.Submission(metrics.OutcomeIngested)
	e.log.Info("submission queued",
		zap.String("pending_id", created.ID.Hex()),
		zap.Bool("add", created.Add),
		zap.String("org_name", created.OrgNameValue()))
	return created, nil
}

// resolveOriginal points an edit at the listing it changes, by explicit id
// when the form carries one, otherwise by organization name.
func (e *Engine) resolveOriginal(ctx context.Context, p *models.PendingSubmission, c map[string]any) error {
	if s, ok := plainText(c[keyOriginalID]); ok {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return apperr.Validation("original_resource_id must be a valid id")
		}
		if _, err := e.resources.GetByID(ctx, id); err != nil {
			if errors.Is(err, resourcestore.ErrNotFound) {
				return apperr.Validation("original_resource_id does not match an existing resource")
			}
			return fmt.Errorf("look up original resource: %w", err)
		}
		p.OriginalResourceID = &id
		return nil
	}

	org := p.OrgNameValue()
	if org == "" {
		return apperr.Validation("org_name is required to edit an existing resource")
	}
	existing, err := e.resources.GetByOrgName(ctx, org)
	if err != nil {
		if errors.Is(err, resourcestore.ErrNotFound) {
			return apperr.Validation(fmt.Sprintf("no existing resource for organization %q", org))
		}
		return fmt.Errorf("look up resource by organization: %w", err)
	}
	p.OriginalResourceID = &existing.ID
	return nil
}

// fillCoordinates geocodes f's address when it has one but no coordinates.
// Lookup failures leave f unchanged.
func (e *Engine) fillCoordinates(ctx context.Context, f *models.ResourceFields) {
	if !f.HasAddress() || f.HasCoordinates() {
		return
	}
	addr := geocode.FormatAddress(deref(f.Address), deref(f.City), deref(f.State), deref(f.Zip))
	pt, err := e.geo.Geocode(ctx, addr)
	if err != nil {
		e.log.Warn("geocode failed", zap.String("address", addr), zap.Error(err))
		return
	}
	if pt == nil {
		e.log.Info("address not found by geocoder", zap.String("address", addr))
		return
	}
	f.Latitude = &pt.Lat
	f.Longitude = &pt.Lng
}

// ListPending returns the review queue, newest first.
func (e *Engine) ListPending(ctx context.Context) ([]models.PendingSubmission, error) {
	return e.pending.List(ctx)
}

// GetPending returns one queued submission.
func (e *Engine) GetPending(ctx context.Context, id primitive.ObjectID) (models.PendingSubmission, error) {
	p, err := e.pending.GetByID(ctx, id)
	if errors.Is(err, pendingstore.ErrNotFound) {
		return models.PendingSubmission{}, apperr.NotFound("Pending resource not found")
	}
	return p, err
}

// Approve publishes a queued submission: a new listing for an addition, a
// partial update of the original for an edit. The submission is removed
// from the queue only after the directory write succeeds.
func (e *Engine) Approve(ctx context.Context, id primitive.ObjectID) (ApproveResult, error) {
	p, err := e.GetPending(ctx, id)
	if err != nil {
		return ApproveResult{}, err
	}

	var res ApproveResult
	if p.Add {
		r, err := e.createResource(ctx, p.ResourceFields)
		if err != nil {
			return ApproveResult{}, err
		}
		res = ApproveResult{Action: ActionCreated, ResourceID: r.ID, Resource: &r, Matched: 1, Modified: 1}
	} else {
		if p.OriginalResourceID == nil {
			return ApproveResult{}, apperr.Validation("submission does not reference an existing resource")
		}
		ur, err := e.updateResource(ctx, *p.OriginalResourceID, p.ResourceFields)
		if err != nil {
			return ApproveResult{}, err
		}
		res = ApproveResult{Action: ActionUpdated, ResourceID: *p.OriginalResourceID, Matched: ur.Matched, Modified: ur.Modified}
	}

	if err := e.pending.Delete(ctx, p.ID); err != nil {
		// The directory write already happened, so this is logged rather
		// than returned. ErrNotFound means a concurrent approve or deny won.
		e.log.Warn("could not remove approved submission from queue",
			zap.String("pending_id", p.ID.Hex()), zap.Error(err))
	}

	if res.Action == ActionCreated {
		e.metrics.Submission(metrics.OutcomeCreated)
	} else {
		e.metrics.Submission(metrics.OutcomeUpdated)
	}
	e.log.Info("submission approved",
		zap.String("pending_id", p.ID.Hex()),
		zap.String("action", res.Action),
		zap.String("resource_id", res.ResourceID.Hex()))

	e.sendStatus(ctx, p, notify.StatusApproved, "")
	return res, nil
}

// Deny drops a queued submission without touching the directory.
func (e *Engine) Deny(ctx context.Context, id primitive.ObjectID, reason string) error {
	p, err := e.GetPending(ctx, id)
	if err != nil {
		return err
	}
	if err := e.pending.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, pendingstore.ErrNotFound) {
			return apperr.NotFound("Pending resource not found")
		}
		return fmt.Errorf("delete pending submission: %w", err)
	}
	e.metrics.Submission(metrics.OutcomeDenied)
	e.log.Info("submission denied", zap.String("pending_id", p.ID.Hex()))

	e.sendStatus(ctx, p, notify.StatusDenied, reason)
	return nil
}

// sendStatus emails the submitter. Failures are logged and counted; they
// never undo the decision that triggered them.
func (e *Engine) sendStatus(ctx context.Context, p models.PendingSubmission, status, extra string) {
	to := p.NotifyAddress()
	if to == "" {
		return
	}
	if err := e.notifier.SendStatusEmail(context.WithoutCancel(ctx), to, p.OrgNameValue(), status, extra); err != nil {
		e.metrics.NotificationFailed()
		e.log.Warn("status email failed",
			zap.String("pending_id", p.ID.Hex()),
			zap.String("status", status),
			zap.Error(err))
	}
}

// ListResources returns published listings, hiding removed ones unless
// includeRemoved is set.
func (e *Engine) ListResources(ctx context.Context, includeRemoved bool) ([]models.Resource, error) {
	return e.resources.List(ctx, includeRemoved)
}

// GetResource returns one listing.
func (e *Engine) GetResource(ctx context.Context, id primitive.ObjectID) (models.Resource, error) {
	r, err := e.resources.GetByID(ctx, id)
	if errors.Is(err, resourcestore.ErrNotFound) {
		return models.Resource{}, apperr.NotFound("Resource not found")
	}
	return r, err
}

// CreateResource publishes a listing directly, bypassing the review queue.
func (e *Engine) CreateResource(ctx context.Context, f models.ResourceFields) (models.Resource, error) {
	sanitize(&f)
	return e.createResource(ctx, f)
}

func (e *Engine) createResource(ctx context.Context, f models.ResourceFields) (models.Resource, error) {
	if err := validateFull(f); err != nil {
		return models.Resource{}, err
	}
	e.fillCoordinates(ctx, &f)
	r, err := e.resources.Create(ctx, models.Resource{
		ResourceFields: f,
		Removed:        false,
		CreatedAt:      e.now(),
	})
	if errors.Is(err, resourcestore.ErrDuplicateOrgName) {
		return models.Resource{}, apperr.Conflict(fmt.Sprintf("A resource for %q already exists", f.OrgNameValue()))
	}
	if err != nil {
		return models.Resource{}, fmt.Errorf("create resource: %w", err)
	}
	return r, nil
}

// UpdateResource merges the present fields of f into a listing. Absent
// fields are left untouched.
func (e *Engine) UpdateResource(ctx context.Context, id primitive.ObjectID, f models.ResourceFields) (resourcestore.UpdateResult, error) {
	sanitize(&f)
	if f == (models.ResourceFields{}) {
		return resourcestore.UpdateResult{}, apperr.Validation("no fields to update")
	}
	return e.updateResource(ctx, id, f)
}

func (e *Engine) updateResource(ctx context.Context, id primitive.ObjectID, f models.ResourceFields) (resourcestore.UpdateResult, error) {
	if err := validatePartial(f); err != nil {
		return resourcestore.UpdateResult{}, err
	}
	if f.HasAddress() && !f.HasCoordinates() {
		e.fillCoordinates(ctx, &f)
	}
	ur, err := e.resources.Update(ctx, id, f)
	switch {
	case errors.Is(err, resourcestore.ErrNotFound):
		return resourcestore.UpdateResult{}, apperr.NotFound("Resource not found")
	case errors.Is(err, resourcestore.ErrDuplicateOrgName):
		return resourcestore.UpdateResult{}, apperr.Conflict(fmt.Sprintf("A resource for %q already exists", f.OrgNameValue()))
	case err != nil:
		return resourcestore.UpdateResult{}, fmt.Errorf("update resource: %w", err)
	}
	return ur, nil
}

// RemoveResource hides a listing. Listings are never hard-deleted.
func (e *Engine) RemoveResource(ctx context.Context, id primitive.ObjectID) error {
	err := e.resources.SetRemoved(ctx, id)
	if errors.Is(err, resourcestore.ErrNotFound) {
		return apperr.NotFound("Resource not found")
	}
	return err
}

// Seed loads trusted rows straight into the directory, keyed by
// organization name. Rows without an organization name are skipped.
// No geocoding is done.
func (e *Engine) Seed(ctx context.Context, rows []map[string]any) (SeedResult, error) {
	var out SeedResult
	for i, row := range rows {
		fields, err := buildFields(canonicalize(row))
		if err != nil {
			return out, apperr.Validation(fmt.Sprintf("row %d: %s", i+1, apperr.Message(err)))
		}
		if fields.OrgNameValue() == "" {
			out.Skipped++
			continue
		}
		_, created, err := e.resources.UpsertByOrgName(ctx, fields)
		if err != nil {
			return out, fmt.Errorf("seed row %d: %w", i+1, err)
		}
		if created {
			out.Created++
		} else {
			out.Updated++
		}
	}
	e.log.Info("directory seeded",
		zap.Int("created", out.Created),
		zap.Int("updated", out.Updated),
		zap.Int("skipped", out.Skipped))
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
