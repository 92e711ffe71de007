// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dalemusser/contributor/internal/app/services/accounts"
	"github.com/dalemusser/contributor/internal/app/services/reconcile"
	adminstore "github.com/dalemusser/contributor/internal/app/store/admins"
	"github.com/dalemusser/contributor/internal/app/store/audit"
	pendingstore "github.com/dalemusser/contributor/internal/app/store/pending"
	resourcestore "github.com/dalemusser/contributor/internal/app/store/resources"
	vendorstore "github.com/dalemusser/contributor/internal/app/store/vendors"
	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"github.com/dalemusser/contributor/internal/app/system/geocode"
	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/app/system/metrics"
	"github.com/dalemusser/contributor/internal/app/system/notify"
	"github.com/dalemusser/contributor/internal/app/system/ratelimit"
	"github.com/dalemusser/contributor/internal/app/system/sheets"
	"github.com/dalemusser/contributor/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services is the shared application state built once in Startup and read
// by BuildHandler and Shutdown.
type services struct {
	accounts *accounts.Service
	engine   *reconcile.Engine
	audit    *audit.Store
	auditLog *auditlog.Logger
	limiter  *ratelimit.LoginLimiter
	metrics  *metrics.Metrics
	sheet    sheets.Source
}

var built atomic.Pointer[services]

func current() *services { return built.Load() }

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it
// applies timeouts and builds the identity provider, geocoder, notifier and
// the services on top of them.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Batch:  appCfg.TimeoutBatch,
	})

	svc, err := buildServices(ctx, appCfg, deps, logger)
	if err != nil {
		return err
	}
	built.Store(svc)
	return nil
}

func buildServices(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase

	idp, err := newIdentityProvider(appCfg, logger)
	if err != nil {
		return nil, err
	}
	notifier, err := newNotifier(ctx, appCfg, logger)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if appCfg.MetricsEnabled {
		m = metrics.New()
	}

	var geo geocode.Geocoder = geocode.Nop{}
	if appCfg.Geocoder == geocoderOpenCage {
		geo = geocode.NewOpenCage(appCfg.OpenCageAPIKey, appCfg.OpenCageURL, timeouts.Short())
	}

	auditStore := audit.New(db)
	svc := &services{
		accounts: accounts.New(accounts.Config{
			AdminEmailDomain:   appCfg.AdminEmailDomain,
			AllowAnyAdminEmail: appCfg.AllowAnyAdminEmail,
			VendorEmailDomain:  appCfg.VendorEmailDomain,
		}, idp, adminstore.New(db), vendorstore.New(db), logger),
		engine:   reconcile.New(resourcestore.New(db), pendingstore.New(db), geo, notifier, m, logger),
		audit:    auditStore,
		auditLog: auditlog.New(auditStore, logger, auditlog.Config{Auth: appCfg.AuditLogAuth, Admin: appCfg.AuditLogAdmin}),
		limiter: ratelimit.NewLoginLimiterWithConfig(
			appCfg.LoginIPLimit, appCfg.LoginIPWindow,
			appCfg.LoginAccountLimit, appCfg.LoginAccountWindow),
		metrics: m,
		sheet:   sheets.NewCSV(appCfg.SheetURL, appCfg.SheetTimeout),
	}

	logger.Info("services ready",
		zap.String("identity_provider", appCfg.IdentityProvider),
		zap.String("geocoder", appCfg.Geocoder),
		zap.String("notifier", appCfg.Notifier),
		zap.Bool("metrics", appCfg.MetricsEnabled))
	return svc, nil
}

func newIdentityProvider(appCfg AppConfig, logger *zap.Logger) (identity.Provider, error) {
	switch appCfg.IdentityProvider {
	case providerSupabase:
		return identity.NewGoTrue(identity.GoTrueConfig{
			BaseURL:    appCfg.SupabaseURL,
			AnonKey:    appCfg.SupabaseKey,
			ServiceKey: appCfg.SupabaseServiceKey,
			JWTSecret:  appCfg.SupabaseJWTSecret,
			Timeout:    timeouts.Short(),
		}), nil
	case providerMemory:
		logger.Warn("using in-memory identity provider; accounts do not survive a restart")
		return identity.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown identity_provider %q", appCfg.IdentityProvider)
}

func newNotifier(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (notify.Notifier, error) {
	if appCfg.Notifier != notifierSES {
		return notify.NewLog(logger), nil
	}
	ses, err := notify.NewSES(ctx, appCfg.SESRegion, appCfg.SESFromEmail, logger)
	if err != nil {
		return nil, err
	}
	return ses, nil
}
