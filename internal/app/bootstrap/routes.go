// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	adminauthfeature "github.com/dalemusser/contributor/internal/app/features/adminauth"
	auditlogfeature "github.com/dalemusser/contributor/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/contributor/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/contributor/internal/app/features/errors"
	healthfeature "github.com/dalemusser/contributor/internal/app/features/health"
	resourcesfeature "github.com/dalemusser/contributor/internal/app/features/resources"
	sheetsyncfeature "github.com/dalemusser/contributor/internal/app/features/sheetsync"
	vendorauthfeature "github.com/dalemusser/contributor/internal/app/features/vendorauth"
	vendorsfeature "github.com/dalemusser/contributor/internal/app/features/vendors"
	"github.com/dalemusser/contributor/internal/app/system/authz"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Every feature gets its handler from the services
// Startup built, and the admin and vendor guards are shared across
// features.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := current()
	if svc == nil {
		return nil, errors.New("bootstrap: Startup must run before BuildHandler")
	}
	return newRouter(svc, deps, logger), nil
}

func newRouter(svc *services, deps DBDeps, logger *zap.Logger) chi.Router {
	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	requireAdmin := authz.RequireAdmin(svc.accounts, errLog.Write)
	requireVendor := authz.RequireVendor(svc.accounts, errLog.Write)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(errLog.Recoverer)
	r.Use(svc.metrics.Middleware())
	r.NotFound(errLog.NotFound)
	r.MethodNotAllowed(errLog.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if svc.metrics != nil {
		r.Handle("/metrics", svc.metrics.Handler())
	}

	// Admin accounts, vendor management, overview and audit trail
	adminAuthHandler := adminauthfeature.NewHandler(svc.accounts, svc.limiter, svc.auditLog, errLog, logger)
	r.Mount("/admin", adminauthfeature.Routes(adminAuthHandler, requireAdmin))

	vendorsHandler := vendorsfeature.NewHandler(svc.accounts, svc.auditLog, errLog, logger)
	r.Mount("/admin/vendors", vendorsfeature.Routes(vendorsHandler, requireAdmin))

	statsHandler := dashboardfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/admin/stats", dashboardfeature.Routes(statsHandler, requireAdmin))

	auditHandler := auditlogfeature.NewHandler(svc.audit, errLog, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, requireAdmin))

	// Vendor sign-in
	vendorAuthHandler := vendorauthfeature.NewHandler(svc.accounts, svc.limiter, svc.auditLog, errLog, logger)
	r.Mount("/auth", vendorauthfeature.Routes(vendorAuthHandler, requireVendor))

	// Directory: public listing and submission form, admin curation and review
	resourcesHandler := resourcesfeature.NewHandler(svc.engine, svc.auditLog, errLog, logger)
	r.Mount("/resources", resourcesfeature.Routes(resourcesHandler, requireAdmin))

	// Spreadsheet passthrough
	syncHandler := sheetsyncfeature.NewHandler(svc.sheet, errLog, logger)
	r.Mount("/", sheetsyncfeature.Routes(syncHandler))

	return r
}
