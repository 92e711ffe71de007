// internal/app/features/resources/public.go
package resources

import (
	"context"
	"net/http"

	"github.com/dalemusser/contributor/internal/app/services/reconcile"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeList returns every published listing that has not been removed.
// GET /resources
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, false)
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, includeRemoved bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Engine.ListResources(ctx, includeRemoved)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list resources failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "resources": list})
}

// ServeResource returns one listing.
// GET /resources/{id}
func (h *Handler) ServeResource(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Engine.GetResource(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "resource": res})
}

// HandleSubmit queues an untrusted add or edit submission for review.
// POST /resources/form
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := respond.DecodeJSON(w, r, &raw); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Engine.Ingest(ctx, raw)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Submission received and pending review",
		"pending": p,
	})
}
