// internal/app/services/accounts/accounts.go
package accounts

import (
	"context"
	"strings"

	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.uber.org/zap"
)

// Default email domains.
const (
	DefaultAdminEmailDomain  = "thecontributor.org"
	DefaultVendorEmailDomain = "internal.contributor"
)

// Minimum password length accepted by the identity provider.
const minPasswordLen = 6

// Config holds the domain rules for local accounts.
type Config struct {
	// AdminEmailDomain is the suffix (after "@") every admin email must carry.
	AdminEmailDomain string
	// AllowAnyAdminEmail disables the domain check. Development only.
	AllowAnyAdminEmail bool
	// VendorEmailDomain is used to synthesize provider emails from vendor codes.
	VendorEmailDomain string
}

// AdminStore is the local admin record storage.
type AdminStore interface {
	Upsert(ctx context.Context, a models.Admin) (models.Admin, error)
	GetByProviderID(ctx context.Context, providerID string) (models.Admin, error)
}

// VendorStore is the local vendor record storage.
type VendorStore interface {
	Create(ctx context.Context, v models.Vendor) (models.Vendor, error)
	CreateMany(ctx context.Context, vs []models.Vendor) ([]models.Vendor, error)
	GetByCode(ctx context.Context, code string) (models.Vendor, error)
	GetByProviderID(ctx context.Context, providerID string) (models.Vendor, error)
	ExistingCodes(ctx context.Context, codes []string) ([]string, error)
	List(ctx context.Context) ([]models.Vendor, error)
	BindProvider(ctx context.Context, code, providerID string) error
	Delete(ctx context.Context, code string) error
}

// Service implements admin and vendor account flows on top of the identity
// provider and the local account records.
type Service struct {
	cfg     Config
	idp     identity.Provider
	admins  AdminStore
	vendors VendorStore
	log     *zap.Logger
}

// New builds a Service. Empty domains fall back to the defaults.
func New(cfg Config, idp identity.Provider, admins AdminStore, vendors VendorStore, logger *zap.Logger) *Service {
	if cfg.AdminEmailDomain == "" {
		cfg.AdminEmailDomain = DefaultAdminEmailDomain
	}
	if cfg.VendorEmailDomain == "" {
		cfg.VendorEmailDomain = DefaultVendorEmailDomain
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, idp: idp, admins: admins, vendors: vendors, log: logger}
}

// adminDomainOK reports whether email belongs to the admin domain.
// The comparison is a lowercase suffix match.
func (s *Service) adminDomainOK(email string) bool {
	if s.cfg.AllowAnyAdminEmail {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(s.cfg.AdminEmailDomain))
}

// vendorEmail is the hidden provider email for a vendor code.
func (s *Service) vendorEmail(code string) string {
	return "v" + code + "@" + s.cfg.VendorEmailDomain
}
