// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/contributor/internal/app/store/audit"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
)

const pageSize = 50

// ServeList handles GET /admin/audit - returns one page of audit events,
// newest first, optionally filtered by category, event_type, actor_id,
// subject and a start_date/end_date range (YYYY-MM-DD, inclusive).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		ActorID:   strings.TrimSpace(q.Get("actor_id")),
		Subject:   strings.TrimSpace(q.Get("subject")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.BadRequest("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.BadRequest("end_date must be YYYY-MM-DD"))
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err)
		return
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err)
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"events":      events,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}
