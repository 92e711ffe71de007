package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/domain/models"
)

type stubResolver struct {
	token  string
	admin  models.Admin
	vendor models.Vendor
	err    error
	calls  int
}

func (s *stubResolver) ResolveAdmin(_ context.Context, token string) (models.Admin, error) {
	s.calls++
	s.token = token
	return s.admin, s.err
}

func (s *stubResolver) ResolveVendor(_ context.Context, token string) (models.Vendor, error) {
	s.calls++
	s.token = token
	return s.vendor, s.err
}

// recordFail captures the error passed to the guard's error writer.
func recordFail(got *error) authz.ErrorWriter {
	return func(w http.ResponseWriter, _ *http.Request, err error) {
		*got = err
		w.WriteHeader(apperr.Status(apperr.KindOf(err)))
	}
}

func TestRequireAdmin_Admits(t *testing.T) {
	res := &stubResolver{admin: models.Admin{ProviderID: "p-1", Email: "a@thecontributor.org", Role: models.RoleAdmin}}
	var failed error

	var seen models.Admin
	h := authz.RequireAdmin(res, recordFail(&failed))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authz.CurrentAdmin(r)
		if authz.Role(r) != models.RoleAdmin {
			t.Errorf("Role: got %q, want admin", authz.Role(r))
		}
		if authz.ActorID(r) != "p-1" {
			t.Errorf("ActorID: got %q, want p-1", authz.ActorID(r))
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	req.Header.Set("Authorization", "bearer  tok-123 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d (err %v)", rec.Code, http.StatusNoContent, failed)
	}
	if res.token != "tok-123" {
		t.Errorf("token: got %q, want %q", res.token, "tok-123")
	}
	if seen.Email != "a@thecontributor.org" {
		t.Errorf("CurrentAdmin email: got %q", seen.Email)
	}
}

func TestRequireAdmin_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		resolveErr error
		wantStatus int
		wantCalls  int
	}{
		{"missing header", "", nil, http.StatusUnauthorized, 0},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized, 0},
		{"empty token", "Bearer ", nil, http.StatusUnauthorized, 0},
		{"provider rejects", "Bearer t", apperr.Unauthenticated("Invalid or expired token"), http.StatusUnauthorized, 1},
		{"outside domain", "Bearer t", apperr.Forbidden("Unauthorized email domain"), http.StatusForbidden, 1},
		{"no local record", "Bearer t", apperr.NotFound("Admin not found in database"), http.StatusNotFound, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := &stubResolver{err: tc.resolveErr}
			var failed error
			h := authz.RequireAdmin(res, recordFail(&failed))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Error("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tc.wantStatus)
			}
			if res.calls != tc.wantCalls {
				t.Errorf("resolver calls: got %d, want %d", res.calls, tc.wantCalls)
			}
			if failed == nil {
				t.Error("expected the error writer to be called")
			}
		})
	}
}

func TestRequireVendor(t *testing.T) {
	pid := "p-9"
	res := &stubResolver{vendor: models.Vendor{VendorCode: "AB12", ProviderID: &pid}}
	var failed error

	h := authz.RequireVendor(res, recordFail(&failed))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := authz.CurrentVendor(r)
		if !ok || v.VendorCode != "AB12" {
			t.Errorf("CurrentVendor: got %+v, %v", v, ok)
		}
		if authz.Role(r) != models.RoleVendor {
			t.Errorf("Role: got %q, want vendor", authz.Role(r))
		}
		if authz.ActorID(r) != pid {
			t.Errorf("ActorID: got %q, want %q", authz.ActorID(r), pid)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer vtok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (err %v)", rec.Code, failed)
	}

	res.err = apperr.NotFound("User not found in database")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown vendor status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRole_Visitor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := authz.Role(req); got != "visitor" {
		t.Errorf("Role: got %q, want visitor", got)
	}
	if got := authz.ActorID(req); got != "" {
		t.Errorf("ActorID: got %q, want empty", got)
	}
}
