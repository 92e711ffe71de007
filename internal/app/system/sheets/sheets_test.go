package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCSV_Fetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pub", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/content", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/content", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Organization Name,Category\nAcme,Help\nHope House,Find Work\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rows, err := NewCSV(srv.URL+"/pub", time.Second).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1]["Category"] != "Find Work" {
		t.Errorf("row 1 category: got %q", rows[1]["Category"])
	}
}

func TestCSV_Fetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewCSV(srv.URL, time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch for non-200 status, got %v", err)
	}
}

func TestCSV_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewCSV(url, time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch for unreachable host, got %v", err)
	}
}
