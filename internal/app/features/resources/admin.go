// internal/app/features/resources/admin.go
package resources

import (
	"context"
	"net/http"

	"github.com/dalemusser/contributor/internal/app/services/reconcile"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeListAll returns every listing, removed ones included.
// GET /resources/all
func (h *Handler) ServeListAll(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, true)
}

// HandleCreate publishes a listing directly, bypassing review.
// POST /resources
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := respond.ReadBody(w, r, 0)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	fields, err := reconcile.DecodeFields(data)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Engine.CreateResource(ctx, fields)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.ResourceCreated(ctx, r, authz.ActorID(r), res.ID.Hex(), res.OrgNameValue())

	respond.JSON(w, http.StatusCreated, map[string]any{"success": true, "resource": res})
}

// HandleUpdate merges the fields present in the body into a listing.
// PATCH /resources/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	data, err := respond.ReadBody(w, r, 0)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	fields, err := reconcile.DecodeFields(data)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ur, err := h.Engine.UpdateResource(ctx, id, fields)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.ResourceUpdated(ctx, r, authz.ActorID(r), id.Hex())

	respond.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"matched":  ur.Matched,
		"modified": ur.Modified,
	})
}

// HandleRemove hides a listing from the public directory.
// POST /resources/{id}/remove
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := reconcile.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Engine.RemoveResource(ctx, id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.ResourceRemoved(ctx, r, authz.ActorID(r), id.Hex())

	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Resource set as removed."})
}
