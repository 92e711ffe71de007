// internal/app/features/resources/seed.go
package resources

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/csvutil"
	"github.com/dalemusser/contributor/internal/app/system/limits"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
)

// HandleSeed loads trusted rows straight into the directory, keyed by
// organization name. The body is either a JSON array of objects or, with
// Content-Type text/csv, a header-keyed CSV.
// POST /resources/seed
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	rows, err := h.readSeedRows(w, r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "seed resources")
	defer cancel()

	res, err := h.Engine.Seed(ctx, rows)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.ResourcesSeeded(ctx, r, authz.ActorID(r), res.Created, res.Updated, res.Skipped)

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
	})
}

func (h *Handler) readSeedRows(w http.ResponseWriter, r *http.Request) ([]map[string]any, error) {
	if respond.MediaType(r) == "text/csv" {
		data, err := respond.ReadBody(w, r, csvutil.MaxUploadSize)
		if err != nil {
			return nil, err
		}
		recs, err := csvutil.ParseRows(bytes.NewReader(data), csvutil.MaxRows)
		if errors.Is(err, csvutil.ErrTooManyRows) {
			return nil, apperr.Validation(fmt.Sprintf("at most %d rows per seed", csvutil.MaxRows))
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "body is not valid CSV", err)
		}
		rows := make([]map[string]any, len(recs))
		for i, rec := range recs {
			row := make(map[string]any, len(rec))
			for k, v := range rec {
				row[k] = v
			}
			rows[i] = row
		}
		return rows, nil
	}

	data, err := respond.ReadBody(w, r, limits.MaxSeedBody)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "body must be a JSON array of objects", err)
	}
	if len(rows) > csvutil.MaxRows {
		return nil, apperr.Validation(fmt.Sprintf("at most %d rows per seed", csvutil.MaxRows))
	}
	return rows, nil
}
