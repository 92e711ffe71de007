package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMemory_SignUpSignIn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.SignUp(ctx, "vAB12@internal.contributor", "secret", nil)
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected user id")
	}

	if _, err := m.SignUp(ctx, "VAB12@internal.contributor", "other", nil); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("second SignUp: got %v, want ErrUserAlreadyExists", err)
	}

	if _, err := m.SignInWithPassword(ctx, "vAB12@internal.contributor", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	s, err := m.SignInWithPassword(ctx, "vab12@internal.contributor", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		t.Error("expected both tokens")
	}

	got, err := m.GetUser(ctx, s.AccessToken)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetUser id: got %q, want %q", got.ID, u.ID)
	}

	if err := m.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := m.GetUser(ctx, s.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token after delete: got %v, want ErrInvalidToken", err)
	}
	if err := m.DeleteUser(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: got %v, want ErrUserNotFound", err)
	}
}

func newGoTrueServer(t *testing.T, h http.HandlerFunc) *GoTrue {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoTrue(GoTrueConfig{BaseURL: srv.URL, AnonKey: "anon", ServiceKey: "service"})
}

func TestGoTrue_SignUp_AlreadyRegistered(t *testing.T) {
	g := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey header: got %q", r.Header.Get("apikey"))
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
	})

	_, err := g.SignUp(context.Background(), "a@b.co", "pw", nil)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("got %v, want ErrUserAlreadyExists", err)
	}
}

func TestGoTrue_SignUp_SessionResponse(t *testing.T) {
	g := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"user":         map[string]any{"id": "u-1", "email": "a@b.co"},
		})
	})

	u, err := g.SignUp(context.Background(), "a@b.co", "pw", map[string]any{"name": "Jo"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if u.ID != "u-1" {
		t.Errorf("id: got %q, want u-1", u.ID)
	}
}

func TestGoTrue_SignInWithPassword(t *testing.T) {
	g := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("grant_type: got %q", r.URL.Query().Get("grant_type"))
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "right" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"expires_in":    3600,
			"user":          map[string]any{"id": "u-1", "email": in["email"]},
		})
	})

	ctx := context.Background()
	if _, err := g.SignInWithPassword(ctx, "a@b.co", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	s, err := g.SignInWithPassword(ctx, "a@b.co", "right")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if s.AccessToken != "access" || s.RefreshToken != "refresh" || s.User.ID != "u-1" {
		t.Errorf("session: got %+v", s)
	}
}

func TestGoTrue_GetUser_RemoteRejects(t *testing.T) {
	g := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "u-1", "email": "a@b.co"})
	})

	ctx := context.Background()
	if _, err := g.GetUser(ctx, "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("bad token: got %v, want ErrInvalidToken", err)
	}
	u, err := g.GetUser(ctx, "good")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Email != "a@b.co" {
		t.Errorf("email: got %q", u.Email)
	}
}

func TestGoTrue_GetUser_LocalJWT(t *testing.T) {
	g := NewGoTrue(GoTrueConfig{BaseURL: "http://unused.invalid", JWTSecret: "s3cret"})

	sign := func(secret string, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
			Email: "jo@thecontributor.org",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-42",
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	ctx := context.Background()
	u, err := g.GetUser(ctx, sign("s3cret", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.ID != "u-42" || u.Email != "jo@thecontributor.org" {
		t.Errorf("user: got %+v", u)
	}

	if _, err := g.GetUser(ctx, sign("other", time.Now().Add(time.Hour))); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v, want ErrInvalidToken", err)
	}
	if _, err := g.GetUser(ctx, sign("s3cret", time.Now().Add(-time.Hour))); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: got %v, want ErrInvalidToken", err)
	}
}

func TestGoTrue_DeleteUser(t *testing.T) {
	g := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer service" {
			t.Errorf("auth: got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path == "/auth/v1/admin/users/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	if err := g.DeleteUser(ctx, "u-1"); err != nil {
		t.Errorf("DeleteUser failed: %v", err)
	}
	if err := g.DeleteUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing: got %v, want ErrUserNotFound", err)
	}
}
