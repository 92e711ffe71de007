// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/contributor/internal/app/store/audit"
	"github.com/dalemusser/contributor/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls admin and vendor sign-in events.
	Auth string
	// Admin controls vendor management and directory moderation events.
	Admin string
}

// Logger records audit events to MongoDB and the structured log. Audit
// writes are best-effort: a failed write is logged and never reaches the
// caller.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's destination.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(context.WithoutCancel(ctx), event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) request(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication Events ---

// AdminRegistered logs a completed admin registration.
func (l *Logger) AdminRegistered(ctx context.Context, r *http.Request, providerID, email string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventAdminRegistered)
	e.ActorID = providerID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// AdminLoginSuccess logs a successful admin login.
func (l *Logger) AdminLoginSuccess(ctx context.Context, r *http.Request, providerID, email string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventAdminLoginSuccess)
	e.ActorID = providerID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// AdminLoginFailed logs a rejected admin login.
func (l *Logger) AdminLoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventAdminLoginFailed)
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, e)
}

// VendorLoginSuccess logs a successful vendor login.
func (l *Logger) VendorLoginSuccess(ctx context.Context, r *http.Request, providerID, vendorCode string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventVendorLoginSuccess)
	e.ActorID = providerID
	e.Subject = vendorCode
	l.Log(ctx, e)
}

// VendorLoginFailed logs a rejected vendor login.
func (l *Logger) VendorLoginFailed(ctx context.Context, r *http.Request, vendorCode, reason string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventVendorLoginFailed)
	e.Subject = vendorCode
	e.Success = false
	e.FailureReason = reason
	l.Log(ctx, e)
}

// VendorPasswordRequired logs a first login that was sent to set-password.
func (l *Logger) VendorPasswordRequired(ctx context.Context, r *http.Request, vendorCode string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventVendorPasswordRequired)
	e.Subject = vendorCode
	l.Log(ctx, e)
}

// VendorPasswordSet logs a completed first-time password set.
func (l *Logger) VendorPasswordSet(ctx context.Context, r *http.Request, providerID, vendorCode string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAuth, audit.EventVendorPasswordSet)
	e.ActorID = providerID
	e.Subject = vendorCode
	l.Log(ctx, e)
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType, actorID, subject string, details map[string]string) {
	if l == nil {
		return
	}
	e := l.request(r, audit.CategoryAdmin, eventType)
	e.ActorID = actorID
	e.Subject = subject
	e.Details = details
	l.Log(ctx, e)
}

// VendorCreated logs a single vendor provisioned by an admin.
func (l *Logger) VendorCreated(ctx context.Context, r *http.Request, actorID, vendorCode, name string) {
	l.admin(ctx, r, audit.EventVendorCreated, actorID, vendorCode, map[string]string{"name": name})
}

// VendorsBulkCreated logs a bulk vendor import.
func (l *Logger) VendorsBulkCreated(ctx context.Context, r *http.Request, actorID string, count int) {
	l.admin(ctx, r, audit.EventVendorsBulkCreated, actorID, "", map[string]string{"count": strconv.Itoa(count)})
}

// VendorDeleted logs a vendor removal.
func (l *Logger) VendorDeleted(ctx context.Context, r *http.Request, actorID, vendorCode string) {
	l.admin(ctx, r, audit.EventVendorDeleted, actorID, vendorCode, nil)
}

// SubmissionApproved logs an approval and what it did to the directory.
func (l *Logger) SubmissionApproved(ctx context.Context, r *http.Request, actorID, pendingID, action, resourceID string) {
	l.admin(ctx, r, audit.EventSubmissionApproved, actorID, pendingID, map[string]string{
		"action":      action,
		"resource_id": resourceID,
	})
}

// SubmissionDenied logs a denial.
func (l *Logger) SubmissionDenied(ctx context.Context, r *http.Request, actorID, pendingID, reason string) {
	var details map[string]string
	if reason != "" {
		details = map[string]string{"reason": reason}
	}
	l.admin(ctx, r, audit.EventSubmissionDenied, actorID, pendingID, details)
}

// ResourceCreated logs a listing published directly by an admin.
func (l *Logger) ResourceCreated(ctx context.Context, r *http.Request, actorID, resourceID, orgName string) {
	l.admin(ctx, r, audit.EventResourceCreated, actorID, resourceID, map[string]string{"org_name": orgName})
}

// ResourceUpdated logs a direct partial update.
func (l *Logger) ResourceUpdated(ctx context.Context, r *http.Request, actorID, resourceID string) {
	l.admin(ctx, r, audit.EventResourceUpdated, actorID, resourceID, nil)
}

// ResourceRemoved logs a soft delete.
func (l *Logger) ResourceRemoved(ctx context.Context, r *http.Request, actorID, resourceID string) {
	l.admin(ctx, r, audit.EventResourceRemoved, actorID, resourceID, nil)
}

// ResourcesSeeded logs a bulk seed.
func (l *Logger) ResourcesSeeded(ctx context.Context, r *http.Request, actorID string, created, updated, skipped int) {
	l.admin(ctx, r, audit.EventResourcesSeeded, actorID, "", map[string]string{
		"created": strconv.Itoa(created),
		"updated": strconv.Itoa(updated),
		"skipped": strconv.Itoa(skipped),
	})
}
