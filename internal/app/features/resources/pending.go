// internal/app/features/resources/pending.go
package resources

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/contributor/internal/app/services/reconcile"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type denyRequest struct {
	Reason string `json:"reason"`
}

// ServePendingList returns the review queue.
// GET /resources/pending
func (h *Handler) ServePendingList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Engine.ListPending(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list pending failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "pending": list, "count": len(list)})
}

// ServePending returns one queued submission.
// GET /resources/pending/{id}
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Engine.GetPending(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "pending": p})
}

// HandleApprove publishes a queued submission.
// POST /resources/pending/{id}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Engine.Approve(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.SubmissionApproved(ctx, r, authz.ActorID(r), id.Hex(), res.Action, res.ResourceID.Hex())

	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

// HandleDeny drops a queued submission. The optional reason is passed on
// to the submitter.
// POST /resources/pending/{id}/deny
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req denyRequest
	if r.ContentLength != 0 {
		if err := respond.DecodeJSON(w, r, &req); err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
	}
	reason := strings.TrimSpace(req.Reason)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Engine.Deny(ctx, id, reason); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.SubmissionDenied(ctx, r, authz.ActorID(r), id.Hex(), reason)

	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Submission denied"})
}
