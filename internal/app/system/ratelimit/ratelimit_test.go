package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
)

func TestLimiter_WindowExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(2, time.Minute, func() time.Time { return now })

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining: got %d, want 0", got)
	}
	if !l.Allow("other") {
		t.Error("keys must be independent")
	}

	now = now.Add(61 * time.Second)
	if got := l.Remaining("k"); got != 2 {
		t.Errorf("Remaining after expiry: got %d, want 2", got)
	}
	if !l.Allow("k") {
		t.Error("request after expiry should be allowed")
	}

	now = now.Add(5 * time.Minute)
	l.sweep()
	if len(l.windows) != 0 {
		t.Errorf("sweep left %d windows", len(l.windows))
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := newLimiter(1, time.Minute, time.Now)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected limit")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should reopen the window")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:5000", "198.51.100.2"},
		{"remote with port", nil, "192.0.2.9:1234", "192.0.2.9"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tc.want {
				t.Errorf("ClientIP: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginLimiter_AccountLimit(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer ll.Stop()

	r := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	for i := 0; i < 2; i++ {
		if err := ll.Check(r, "Admin@TheContributor.org"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	err := ll.Check(r, "admin@thecontributor.org ")
	if !apperr.Is(err, apperr.KindTooManyRequests) {
		t.Fatalf("third attempt: got %v, want TooManyRequests", err)
	}

	ll.Succeeded("ADMIN@thecontributor.org")
	if err := ll.Check(r, "admin@thecontributor.org"); err != nil {
		t.Errorf("after success: %v", err)
	}
}

func TestLoginLimiter_Nil(t *testing.T) {
	var ll *LoginLimiter
	if err := ll.Check(httptest.NewRequest(http.MethodPost, "/", nil), "x"); err != nil {
		t.Errorf("nil limiter: %v", err)
	}
	ll.Succeeded("x")
	ll.Stop()
}
