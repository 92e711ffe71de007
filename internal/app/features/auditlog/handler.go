// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Store  *audit.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler reading from store.
func NewHandler(store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: errLog,
	}
}
