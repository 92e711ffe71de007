// internal/app/features/vendorauth/handler.go
package vendorauth

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/services/accounts"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/ratelimit"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/dalemusser/contributor/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves vendor sign-in and vendor profile lookups.
type Handler struct {
	Accounts *accounts.Service
	Limiter  *ratelimit.LoginLimiter
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a vendor auth Handler. limiter and audit may be nil.
func NewHandler(acc *accounts.Service, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: acc,
		Limiter:  limiter,
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type credentials struct {
	VendorID string `json:"vendor_id"`
	Password string `json:"password"`
}

// profile is the public view of a vendor.
type profile struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func toProfile(v models.Vendor) profile {
	return profile{VendorID: v.VendorCode, Name: v.Name, Role: models.RoleVendor}
}

// HandleLogin runs the vendor login state machine. A vendor without a
// password who sends a blank one gets {"password_required": true}.
// POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Limiter.Check(r, in.VendorID); err != nil {
		h.Log.Warn("vendor login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Accounts.LoginVendor(ctx, in.VendorID, in.Password)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			h.Audit.VendorLoginFailed(ctx, r, in.VendorID, apperr.Message(err))
		}
		h.ErrLog.Write(w, r, err)
		return
	}
	if out.PasswordRequired {
		h.Audit.VendorPasswordRequired(ctx, r, in.VendorID)
		respond.JSON(w, http.StatusOK, out)
		return
	}
	h.Limiter.Succeeded(in.VendorID)
	h.Audit.VendorLoginSuccess(ctx, r, out.User.ID, out.User.VendorID)
	respond.JSON(w, http.StatusOK, out)
}

// HandleSetPassword performs the first-time password set and returns a
// session.
// POST /auth/set-password
func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Limiter.Check(r, in.VendorID); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Accounts.SetVendorPassword(ctx, in.VendorID, in.Password)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Limiter.Succeeded(in.VendorID)
	h.Audit.VendorPasswordSet(ctx, r, out.User.ID, out.User.VendorID)
	respond.JSON(w, http.StatusCreated, out)
}

// ServeMe returns the vendor admitted by the guard.
// GET /auth/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	v, ok := authz.CurrentVendor(r)
	if !ok {
		h.ErrLog.Write(w, r, apperr.Unauthenticated("Missing Bearer token"))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": toProfile(v)})
}

// ServeUser looks another vendor up by code.
// GET /auth/users/{code}
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Accounts.GetVendor(ctx, chi.URLParam(r, "code"))
	if apperr.Is(err, apperr.KindNotFound) {
		err = apperr.NotFound("User not found")
	}
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": toProfile(v)})
}

// ServeUsers lists every vendor's public profile.
// GET /auth/users
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	vs, err := h.Accounts.ListVendors(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list vendors failed", err)
		return
	}
	users := make([]profile, len(vs))
	for i, v := range vs {
		users[i] = toProfile(v)
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": users})
}
