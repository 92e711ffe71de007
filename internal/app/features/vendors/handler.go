// internal/app/features/vendors/handler.go
package vendors

import (
	"context"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/services/accounts"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/limits"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves admin vendor management.
type Handler struct {
	Accounts *accounts.Service
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a vendors Handler.
func NewHandler(acc *accounts.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: acc,
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// HandleCreate provisions one vendor.
// POST /admin/vendors
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in accounts.VendorInput
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Accounts.CreateVendor(ctx, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.VendorCreated(ctx, r, authz.ActorID(r), v.VendorCode, v.Name)

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Vendor created successfully",
		"vendor":  v,
	})
}

// HandleBulkCreate provisions a batch of vendors, all or nothing.
// POST /admin/vendors/bulk
func (h *Handler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var in []accounts.VendorInput
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if len(in) > limits.MaxBulkVendors {
		h.ErrLog.Write(w, r, apperr.Validation(fmt.Sprintf("at most %d vendors per request", limits.MaxBulkVendors)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	created, err := h.Accounts.CreateVendors(ctx, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.VendorsBulkCreated(ctx, r, authz.ActorID(r), len(created))

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Created %d vendors", len(created)),
		"count":   len(created),
	})
}

// ServeList lists every vendor.
// GET /admin/vendors
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	vs, err := h.Accounts.ListVendors(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list vendors failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"vendors": vs, "count": len(vs)})
}

// ServeVendor returns one vendor.
// GET /admin/vendors/{code}
func (h *Handler) ServeVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Accounts.GetVendor(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"vendor": v})
}

// HandleDelete removes a vendor and its provider account.
// DELETE /admin/vendors/{code}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	code := chi.URLParam(r, "code")
	if err := h.Accounts.DeleteVendor(ctx, code); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.VendorDeleted(ctx, r, authz.ActorID(r), code)

	respond.JSON(w, http.StatusOK, map[string]any{"message": "Vendor deleted successfully"})
}
