// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"net/http"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/domain/models"
)

type ctxKey int

const (
	adminKey ctxKey = iota
	vendorKey
)

// AdminResolver maps a bearer token to the admin who owns it.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, token string) (models.Admin, error)
}

// VendorResolver maps a bearer token to the vendor who owns it.
type VendorResolver interface {
	ResolveVendor(ctx context.Context, token string) (models.Vendor, error)
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", apperr.Unauthenticated("Missing Bearer token")
	}
	token, ok := normalize.Bearer(h)
	if !ok {
		return "", apperr.Unauthenticated("Invalid authorization header")
	}
	return token, nil
}

// RequireAdmin admits only requests carrying a token that resolves to an
// admin. The admin is available to handlers through CurrentAdmin.
func RequireAdmin(res AdminResolver, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				fail(w, r, err)
				return
			}
			admin, err := res.ResolveAdmin(r.Context(), token)
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// RequireVendor admits only requests carrying a token that resolves to a
// vendor.
func RequireVendor(res VendorResolver, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				fail(w, r, err)
				return
			}
			vendor, err := res.ResolveVendor(r.Context(), token)
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithVendor(r.Context(), vendor)))
		})
	}
}

// WithAdmin stores admin in ctx.
func WithAdmin(ctx context.Context, admin models.Admin) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

// WithVendor stores vendor in ctx.
func WithVendor(ctx context.Context, vendor models.Vendor) context.Context {
	return context.WithValue(ctx, vendorKey, vendor)
}

// CurrentAdmin returns the admin admitted by RequireAdmin.
func CurrentAdmin(r *http.Request) (models.Admin, bool) {
	a, ok := r.Context().Value(adminKey).(models.Admin)
	return a, ok
}

// CurrentVendor returns the vendor admitted by RequireVendor.
func CurrentVendor(r *http.Request) (models.Vendor, bool) {
	v, ok := r.Context().Value(vendorKey).(models.Vendor)
	return v, ok
}

// Role returns "admin", "vendor" or "visitor" for the request.
func Role(r *http.Request) string {
	if _, ok := CurrentAdmin(r); ok {
		return models.RoleAdmin
	}
	if _, ok := CurrentVendor(r); ok {
		return models.RoleVendor
	}
	return "visitor"
}

// ActorID returns the identity-provider id of whoever was admitted, or "".
func ActorID(r *http.Request) string {
	if a, ok := CurrentAdmin(r); ok {
		return a.ProviderID
	}
	if v, ok := CurrentVendor(r); ok && v.ProviderID != nil {
		return *v.ProviderID
	}
	return ""
}
