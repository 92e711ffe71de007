// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/contributor/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Identity, geocoder and notifier backends.
const (
	providerSupabase = "supabase"
	providerMemory   = "memory"

	geocoderOpenCage = "opencage"
	geocoderNone     = "none"

	notifierLog = "log"
	notifierSES = "ses"
)

// appConfigKeys defines the configuration keys for the directory service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, sheet_url, etc.
//   - Environment variables: CONTRIBUTOR_MONGO_URI, CONTRIBUTOR_SHEET_URL, etc.
//   - Command-line flags: --mongo_uri, --sheet_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "the-contributor", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Accounts
	{Name: "admin_email_domain", Default: "thecontributor.org", Desc: "Email domain required for admin registration"},
	{Name: "allow_any_admin_email", Default: false, Desc: "Skip the admin email domain check (development only)"},
	{Name: "vendor_email_domain", Default: "internal.contributor", Desc: "Domain for synthesized vendor provider emails"},

	// Identity provider
	{Name: "identity_provider", Default: providerSupabase, Desc: "Identity provider: 'supabase' or 'memory'"},
	{Name: "supabase_url", Default: "", Desc: "Supabase project URL"},
	{Name: "supabase_key", Default: "", Desc: "Supabase anon key"},
	{Name: "supabase_service_key", Default: "", Desc: "Supabase service role key (vendor account deletion)"},
	{Name: "supabase_jwt_secret", Default: "", Desc: "Supabase JWT secret for local token verification (optional)"},

	// Geocoding
	{Name: "geocoder", Default: geocoderNone, Desc: "Geocoder: 'opencage' or 'none'"},
	{Name: "opencage_api_key", Default: "", Desc: "OpenCage API key"},
	{Name: "opencage_url", Default: "", Desc: "OpenCage endpoint override"},

	// Spreadsheet sync
	{Name: "sheet_url", Default: "", Desc: "Published CSV URL of the resource spreadsheet"},
	{Name: "sheet_timeout", Default: "15s", Desc: "Spreadsheet fetch timeout"},

	// Notifications
	{Name: "notifier", Default: notifierLog, Desc: "Status email delivery: 'log' or 'ses'"},
	{Name: "ses_region", Default: "", Desc: "AWS region for SES"},
	{Name: "ses_from_email", Default: "", Desc: "From address for status emails"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: auditlog.DestAll, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.DestAll, Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login rate limiting
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per client IP per window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Per-IP login window"},
	{Name: "login_account_limit", Default: 5, Desc: "Login attempts allowed per account per window"},
	{Name: "login_account_window", Default: "5m", Desc: "Per-account login window"},

	// Timeouts (0 keeps the built-in default)
	{Name: "timeout_short", Default: "0s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "0s", Desc: "Timeout for lists and multi-step operations"},
	{Name: "timeout_batch", Default: "0s", Desc: "Timeout for seeding, sheet sync and bulk vendor creation"},

	{Name: "metrics_enabled", Default: false, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, CONTRIBUTOR_* for app) and
// command-line flags with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CONTRIBUTOR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AdminEmailDomain:   appValues.String("admin_email_domain"),
		AllowAnyAdminEmail: appValues.Bool("allow_any_admin_email"),
		VendorEmailDomain:  appValues.String("vendor_email_domain"),

		IdentityProvider:   strings.ToLower(appValues.String("identity_provider")),
		SupabaseURL:        appValues.String("supabase_url"),
		SupabaseKey:        appValues.String("supabase_key"),
		SupabaseServiceKey: appValues.String("supabase_service_key"),
		SupabaseJWTSecret:  appValues.String("supabase_jwt_secret"),

		Geocoder:       strings.ToLower(appValues.String("geocoder")),
		OpenCageAPIKey: appValues.String("opencage_api_key"),
		OpenCageURL:    appValues.String("opencage_url"),

		SheetURL:     appValues.String("sheet_url"),
		SheetTimeout: appValues.Duration("sheet_timeout", 15*time.Second),

		Notifier:     strings.ToLower(appValues.String("notifier")),
		SESRegion:    appValues.String("ses_region"),
		SESFromEmail: appValues.String("ses_from_email"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginIPLimit:       appValues.Int("login_ip_limit"),
		LoginIPWindow:      appValues.Duration("login_ip_window", time.Minute),
		LoginAccountLimit:  appValues.Int("login_account_limit"),
		LoginAccountWindow: appValues.Duration("login_account_window", 5*time.Minute),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutBatch:  appValues.Duration("timeout_batch", 0),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	if appCfg.AllowAnyAdminEmail {
		logger.Warn("admin email domain check disabled; do not use in production")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.IdentityProvider {
	case providerSupabase:
		if appCfg.SupabaseURL == "" || appCfg.SupabaseKey == "" {
			return fmt.Errorf("identity_provider %q requires supabase_url and supabase_key", providerSupabase)
		}
	case providerMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			return fmt.Errorf("identity_provider %q is not allowed in prod", providerMemory)
		}
	default:
		return fmt.Errorf("unknown identity_provider %q (want %q or %q)", appCfg.IdentityProvider, providerSupabase, providerMemory)
	}

	switch appCfg.Geocoder {
	case geocoderNone:
	case geocoderOpenCage:
		if appCfg.OpenCageAPIKey == "" {
			return fmt.Errorf("geocoder %q requires opencage_api_key", geocoderOpenCage)
		}
	default:
		return fmt.Errorf("unknown geocoder %q (want %q or %q)", appCfg.Geocoder, geocoderOpenCage, geocoderNone)
	}

	switch appCfg.Notifier {
	case notifierLog:
	case notifierSES:
		if appCfg.SESFromEmail == "" {
			return fmt.Errorf("notifier %q requires ses_from_email", notifierSES)
		}
	default:
		return fmt.Errorf("unknown notifier %q (want %q or %q)", appCfg.Notifier, notifierLog, notifierSES)
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}

	if appCfg.SheetURL == "" {
		logger.Warn("sheet_url is not set; /sync_resources will fail until it is configured")
	}

	return nil
}
