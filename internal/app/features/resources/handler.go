// internal/app/features/resources/handler.go
package resources

import (
	uierrors "github.com/dalemusser/contributor/internal/app/features/errors"
	"github.com/dalemusser/contributor/internal/app/services/reconcile"
	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler owns the directory endpoints: the public listing and
// submission form, and the admin curation and review queue.
//
// It is constructed once at startup in bootstrap around the shared
// reconciliation engine.
type Handler struct {
	Engine *reconcile.Engine
	Audit  *auditlog.Logger
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a resources Handler.
func NewHandler(engine *reconcile.Engine, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: engine,
		Audit:  audit,
		ErrLog: errLog,
		Log:    logger,
	}
}
