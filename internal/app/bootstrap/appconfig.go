// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CONTRIBUTOR_*),
// configuration files, or command-line flags (loaded in LoadConfig).
// WAFFLE's CoreConfig handles ports, TLS, logging level and CORS; AppConfig
// is everything specific to the directory service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Account rules
	AdminEmailDomain   string // admins must register with an address in this domain
	AllowAnyAdminEmail bool   // development only
	VendorEmailDomain  string // domain for synthesized vendor provider emails

	// Identity provider: "supabase" (GoTrue REST) or "memory"
	IdentityProvider   string
	SupabaseURL        string
	SupabaseKey        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Geocoding: "opencage" or "none"
	Geocoder       string
	OpenCageAPIKey string
	OpenCageURL    string

	// Published spreadsheet for /sync_resources
	SheetURL     string
	SheetTimeout time.Duration

	// Status email delivery: "log" or "ses"
	Notifier     string
	SESRegion    string
	SESFromEmail string

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Login rate limiting
	LoginIPLimit       int
	LoginIPWindow      time.Duration
	LoginAccountLimit  int
	LoginAccountWindow time.Duration

	// Per-operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutBatch  time.Duration

	MetricsEnabled bool
}
