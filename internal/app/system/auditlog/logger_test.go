package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/contributor/internal/app/store/audit"
	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"github.com/dalemusser/contributor/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.AdminLoginSuccess(ctx, req, "p-1", "a@thecontributor.org")
	logger.VendorDeleted(ctx, req, "p-1", "AB12")
	logger.ResourcesSeeded(ctx, req, "p-1", 1, 2, 3)
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{
		Auth:  auditlog.DestOff,
		Admin: auditlog.DestOff,
	})

	req := httptest.NewRequest("POST", "/admin/login", nil)
	logger.AdminLoginSuccess(ctx, req, "p-1", "a@thecontributor.org")
	logger.VendorCreated(ctx, req, "p-1", "AB12", "Acme")

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stored events when config is 'off', got %d", len(events))
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log entries when config is 'off', got %d", logs.Len())
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{
		Auth:  auditlog.DestDB,
		Admin: auditlog.DestDB,
	})

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.Header.Set("User-Agent", "test-agent")
	logger.VendorLoginFailed(ctx, req, "AB12", "Invalid Vendor ID or password")

	events, err := store.Query(ctx, audit.QueryFilter{Subject: "AB12"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventVendorLoginFailed {
		t.Errorf("EventType: got %q, want %q", e.EventType, audit.EventVendorLoginFailed)
	}
	if e.Category != audit.CategoryAuth {
		t.Errorf("Category: got %q, want %q", e.Category, audit.CategoryAuth)
	}
	if e.Success {
		t.Error("expected Success=false")
	}
	if e.FailureReason != "Invalid Vendor ID or password" {
		t.Errorf("FailureReason: got %q", e.FailureReason)
	}
	if e.IP != "203.0.113.5" {
		t.Errorf("IP: got %q, want %q", e.IP, "203.0.113.5")
	}
	if e.UserAgent != "test-agent" {
		t.Errorf("UserAgent: got %q", e.UserAgent)
	}
	if logs.Len() != 0 {
		t.Errorf("'db' destination must not write to zap, got %d entries", logs.Len())
	}
}

func TestLogger_Log_ConfigLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.New(core), auditlog.Config{
		Auth:  auditlog.DestLog,
		Admin: auditlog.DestLog,
	})

	req := httptest.NewRequest("POST", "/resources/pending/x/deny", nil)
	logger.SubmissionDenied(ctx, req, "p-1", "pending-1", "duplicate listing")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("'log' destination must not store events, got %d", n)
	}

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventSubmissionDenied {
		t.Errorf("event_type: got %v", fields["event_type"])
	}
	if fields["subject"] != "pending-1" {
		t.Errorf("subject: got %v", fields["subject"])
	}
	if fields["detail_reason"] != "duplicate listing" {
		t.Errorf("detail_reason: got %v", fields["detail_reason"])
	}
}

func TestLogger_Log_MixedConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{
		Auth:  auditlog.DestOff,
		Admin: auditlog.DestAll,
	})

	req := httptest.NewRequest("POST", "/", nil)
	logger.AdminLoginFailed(ctx, req, "x@thecontributor.org", "Invalid email or password")
	logger.SubmissionApproved(ctx, req, "p-1", "pending-2", "created", "res-1")
	logger.ResourcesSeeded(ctx, req, "p-1", 3, 1, 0)

	events, err := store.Query(ctx, audit.QueryFilter{ActorID: "p-1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 admin events, got %d", len(events))
	}
	for _, e := range events {
		if e.Category != audit.CategoryAdmin {
			t.Errorf("unexpected category %q", e.Category)
		}
	}

	auth, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if auth != 0 {
		t.Errorf("auth events stored despite 'off': %d", auth)
	}

	approved, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventSubmissionApproved})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(approved) != 1 || approved[0].Details["action"] != "created" || approved[0].Details["resource_id"] != "res-1" {
		t.Errorf("approved event details: %+v", approved)
	}
}
