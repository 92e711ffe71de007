// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	adminstore "github.com/dalemusser/contributor/internal/app/store/admins"
	"github.com/dalemusser/contributor/internal/app/store/audit"
	pendingstore "github.com/dalemusser/contributor/internal/app/store/pending"
	resourcestore "github.com/dalemusser/contributor/internal/app/store/resources"
	vendorstore "github.com/dalemusser/contributor/internal/app/store/vendors"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/dalemusser/contributor/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// indexer is implemented by every store that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureSchema creates the collections with their validators, then the
// indexes every store depends on. Both steps are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	return ensureIndexes(ctx, deps.MongoDatabase, logger)
}

func ensureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	stores := []struct {
		name  string
		store indexer
	}{
		{"resources", resourcestore.New(db)},
		{"pending_resources", pendingstore.New(db)},
		{"admins", adminstore.New(db)},
		{"vendors", vendorstore.New(db)},
		{"audit_events", audit.New(db)},
	}

	var problems []string
	for _, s := range stores {
		if err := s.store.EnsureIndexes(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", s.name), zap.Error(err))
			problems = append(problems, s.name+": "+err.Error())
			continue
		}
		logger.Debug("indexes ensured", zap.String("collection", s.name))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
