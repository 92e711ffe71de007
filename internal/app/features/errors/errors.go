// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"
	"runtime/debug"

	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const internalMsg = "Internal server error"

// ErrorLogger turns errors into {"detail": ...} responses. Classified
// errors are written as-is; anything else is logged with request context
// and reported as a generic 500.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Write renders err.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)

	switch {
	case kind == apperr.KindInternal:
		e.LogServerError(w, r, "unhandled error", err)
		return
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	if cause := unwrapped(err); cause != nil {
		e.Log.Debug("request rejected",
			zap.String("kind", kind.String()),
			zap.String("path", r.URL.Path),
			zap.Error(cause))
	}
	respond.Detail(w, status, apperr.Message(err))
}

// LogServerError logs err with the request that caused it and writes a
// generic 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	respond.Detail(w, http.StatusInternalServerError, apperr.Message(err))
}

// Recoverer converts a panic into a logged 500.
func (e *ErrorLogger) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			e.Log.Error("panic serving request",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			respond.Detail(w, http.StatusInternalServerError, internalMsg)
		}()
		next.ServeHTTP(w, r)
	})
}

// NotFound is the router's fallback for unknown paths.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Detail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed is the router's fallback for a known path with the
// wrong method.
func (e *ErrorLogger) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func unwrapped(err error) error {
	var ae *apperr.Error
	if stderrors.As(err, &ae) {
		return ae.Err
	}
	return nil
}
