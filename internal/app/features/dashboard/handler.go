// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	metricsstore "github.com/dalemusser/contributor/internal/app/store/metrics"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/contributor/internal/app/system/respond"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// ServeStats returns the directory overview counts for admins.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts := metricsstore.FetchDirectoryCounts(ctx, h.DB)

	h.Log.Debug("admin stats served", zap.String("admin", authz.ActorID(r)))

	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "stats": counts})
}
