// internal/app/features/sheetsync/handler.go
package sheetsync

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/sheets"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler exposes the published resource spreadsheet as JSON.
type Handler struct {
	Sheet  sheets.Source
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

// NewHandler constructs a sync Handler reading from sheet.
func NewHandler(sheet sheets.Source, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Sheet:  sheet,
		ErrLog: errLog,
		Log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ServeSync fetches the sheet and returns its rows. Nothing is written to
// the directory.
// GET /sync_resources
func (h *Handler) ServeSync(w http.ResponseWriter, r *http.Request) {
	h.Log.Info("starting resource sync from sheet")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "sync sheet")
	defer cancel()

	rows, err := h.Sheet.Fetch(ctx)
	if err != nil {
		if errors.Is(err, sheets.ErrFetch) {
			h.Log.Error("fetch sheet failed", zap.Error(err))
			respond.Detail(w, http.StatusBadGateway, "Failed to fetch sheet: "+err.Error())
			return
		}
		h.Log.Error("parse sheet failed", zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "Parsing error: "+err.Error())
		return
	}

	resources := make([]map[string]any, len(rows))
	for i, row := range rows {
		resources[i] = typedRow(row)
	}
	h.Log.Info("resource sync complete", zap.Int("count", len(resources)))

	respond.JSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"source":    "google_sheet",
		"synced_at": h.now().Format(time.RFC3339),
		"count":     len(resources),
		"resources": resources,
	})
}

// typedRow converts sheet cells to JSON values: empty cells become null
// and numeric cells become numbers.
func typedRow(row map[string]string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = cell(v)
	}
	return out
}

func cell(v string) any {
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
