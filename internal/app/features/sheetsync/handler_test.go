package sheetsync

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/system/sheets"
	"github.com/dalemusser/contributor/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, body string, status int) http.Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	h := NewHandler(sheets.NewCSV(srv.URL, time.Second), uierrors.NewErrorLogger(logger), logger)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return Routes(h)
}

func TestServeSync(t *testing.T) {
	r := newRouter(t, "Organization Name,Phone,Latitude,Notes\nAcme,5735550100,38.95,\nHope House,,,open late\n", http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/sync_resources"))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d (%s)", rec.Code, rec.Body.String())
	}
	body := testutil.DecodeJSON(t, rec)
	if body["status"] != "success" || body["source"] != "google_sheet" {
		t.Errorf("envelope: %v", body)
	}
	if body["synced_at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("synced_at: got %v", body["synced_at"])
	}
	if body["count"] != float64(2) {
		t.Fatalf("count: got %v, want 2", body["count"])
	}

	rows := body["resources"].([]any)
	acme := rows[0].(map[string]any)
	if acme["Phone"] != float64(5735550100) || acme["Latitude"] != 38.95 {
		t.Errorf("numeric cells: %v", acme)
	}
	if v, ok := acme["Notes"]; !ok || v != nil {
		t.Errorf("empty cell should be null, got %v (present %v)", v, ok)
	}
	if hope := rows[1].(map[string]any); hope["Notes"] != "open late" {
		t.Errorf("text cell: %v", hope["Notes"])
	}
}

func TestServeSync_FetchFailure(t *testing.T) {
	r := newRouter(t, "", http.StatusNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/sync_resources"))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("got %d, want 502", rec.Code)
	}
}

func TestServeSync_ParseFailure(t *testing.T) {
	r := newRouter(t, "Name\n\"unterminated\n", http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/sync_resources"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", rec.Code)
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"42", int64(42)},
		{"-1.5", -1.5},
		{"9-5", "9-5"},
		{"Acme", "Acme"},
	}
	for _, tt := range tests {
		if got := cell(tt.in); got != tt.want {
			t.Errorf("cell(%q): got %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
