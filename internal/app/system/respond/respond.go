// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/limits"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Detail writes the error body shape used by every endpoint.
func Detail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"detail": msg})
}

// ReadBody reads at most limit bytes of the request body. A larger body is
// a BadRequest.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = limits.MaxJSONBody
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperr.BadRequest("Request body too large")
		}
		return nil, apperr.Wrap(apperr.KindBadRequest, "Could not read request body", err)
	}
	return data, nil
}

// DecodeJSON decodes a size-limited JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	data, err := ReadBody(w, r, limits.MaxJSONBody)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return apperr.Validation("request body is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "request body is not valid JSON", err)
	}
	return nil
}

// MediaType returns the lower-cased media type of the request, without
// parameters.
func MediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
