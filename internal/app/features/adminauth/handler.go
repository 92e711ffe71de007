// internal/app/features/adminauth/handler.go
package adminauth

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
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves admin registration, login and profile lookups.
type Handler struct {
	Accounts *accounts.Service
	Limiter  *ratelimit.LoginLimiter
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs an admin auth Handler. limiter and audit may be nil.
func NewHandler(acc *accounts.Service, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: acc,
		Limiter:  limiter,
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates the provider account and the admin record.
// POST /admin/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterAdminInput
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	admin, err := h.Accounts.RegisterAdmin(ctx, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.AdminRegistered(ctx, r, admin.ProviderID, admin.Email)

	respond.JSON(w, http.StatusOK, map[string]any{"status": "ok", "id": admin.ProviderID})
}

// HandleLogin signs an admin in.
// POST /admin/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := respond.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Limiter.Check(r, in.Email); err != nil {
		h.Log.Warn("admin login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sess, err := h.Accounts.LoginAdmin(ctx, in.Email, in.Password)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			h.Audit.AdminLoginFailed(ctx, r, in.Email, apperr.Message(err))
		}
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Limiter.Succeeded(in.Email)
	h.Audit.AdminLoginSuccess(ctx, r, sess.Admin.ProviderID, sess.Admin.Email)

	respond.JSON(w, http.StatusOK, sess)
}

// ServeMe returns the admin admitted by the guard.
// GET /admin/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	admin, ok := authz.CurrentAdmin(r)
	if !ok {
		h.ErrLog.Write(w, r, apperr.Unauthenticated("Missing Bearer token"))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"admin": admin})
}

// ServeUser looks an admin up by provider id.
// GET /admin/users/{providerID}
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	admin, err := h.Accounts.GetAdmin(ctx, chi.URLParam(r, "providerID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"admin": admin})
}
