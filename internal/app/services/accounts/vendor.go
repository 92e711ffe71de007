package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vendorstore "github.com/dalemusser/contributor/internal/app/store/vendors"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.uber.org/zap"
)

// VendorUser is the vendor profile returned alongside tokens.
type VendorUser struct {
	ID       string `json:"id"`
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// VendorLogin is the outcome of a vendor login. Exactly one of two shapes
// is filled: PasswordRequired with Message and Name, or the token pair
// with User.
type VendorLogin struct {
	PasswordRequired bool        `json:"password_required,omitempty"`
	Message          string      `json:"message,omitempty"`
	Name             string      `json:"name,omitempty"`
	AccessToken      string      `json:"access_token,omitempty"`
	RefreshToken     string      `json:"refresh_token,omitempty"`
	User             *VendorUser `json:"user,omitempty"`
}

func (s *Service) vendorByCode(ctx context.Context, code, notFound string) (models.Vendor, error) {
	v, err := s.vendors.GetByCode(ctx, code)
	if errors.Is(err, vendorstore.ErrNotFound) {
		return models.Vendor{}, apperr.NotFound(notFound)
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("load vendor: %w", err)
	}
	return v, nil
}

// LoginVendor runs the vendor login state machine:
//
//	password not set, blank password  -> password_required
//	password not set, other password  -> Unauthenticated
//	password set                      -> provider sign-in
func (s *Service) LoginVendor(ctx context.Context, code, password string) (VendorLogin, error) {
	code = normalize.VendorCode(code)
	if code == "" {
		return VendorLogin{}, apperr.Validation("vendor_id is required")
	}
	v, err := s.vendorByCode(ctx, code, "Vendor ID not found")
	if err != nil {
		s.log.Warn("vendor login for unknown code", zap.String("vendor_id", code))
		return VendorLogin{}, err
	}

	if !v.PasswordSet {
		if strings.TrimSpace(password) == "" {
			s.log.Info("vendor needs to set password", zap.String("vendor_id", code))
			return VendorLogin{PasswordRequired: true, Message: "Please set your password", Name: v.Name}, nil
		}
		return VendorLogin{}, apperr.Unauthenticated("Password not set. Please set your password first.")
	}

	sess, err := s.idp.SignInWithPassword(ctx, s.vendorEmail(code), password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		s.log.Warn("vendor login failed", zap.String("vendor_id", code))
		return VendorLogin{}, apperr.Unauthenticated("Invalid Vendor ID or password")
	}
	if err != nil {
		return VendorLogin{}, fmt.Errorf("vendor sign-in: %w", err)
	}

	s.log.Info("vendor login", zap.String("vendor_id", code))
	return s.vendorSession(sess, v), nil
}

// SetVendorPassword performs the first-time password set: it creates the
// provider account (or adopts an existing one whose password matches),
// binds it to the vendor and signs the vendor in.
func (s *Service) SetVendorPassword(ctx context.Context, code, password string) (VendorLogin, error) {
	code = normalize.VendorCode(code)
	if code == "" {
		return VendorLogin{}, apperr.Validation("vendor_id is required")
	}
	if len(password) < minPasswordLen {
		return VendorLogin{}, apperr.Validation(fmt.Sprintf("password must be at least %d characters.", minPasswordLen))
	}
	v, err := s.vendorByCode(ctx, code, "Vendor ID not found")
	if err != nil {
		return VendorLogin{}, err
	}
	if v.PasswordSet {
		return VendorLogin{}, apperr.BadRequest("Password already set. Use login instead.")
	}

	email := s.vendorEmail(code)
	user, err := s.idp.SignUp(ctx, email, password, map[string]any{"vendor_id": code, "role": models.RoleVendor})
	if errors.Is(err, identity.ErrUserAlreadyExists) {
		s.log.Info("provider account exists for vendor, trying sign-in", zap.String("vendor_id", code))
		sess, serr := s.idp.SignInWithPassword(ctx, email, password)
		if serr != nil {
			return VendorLogin{}, apperr.ConflictRequiresSupport("Account exists but password doesn't match. Contact support.")
		}
		user, err = sess.User, nil
	}
	if err != nil {
		return VendorLogin{}, fmt.Errorf("vendor sign-up: %w", err)
	}

	if err := s.vendors.BindProvider(ctx, code, user.ID); err != nil {
		switch {
		case errors.Is(err, vendorstore.ErrProviderInUse):
			return VendorLogin{}, apperr.ConflictRequiresSupport("Account is linked to another vendor. Contact support.")
		case errors.Is(err, vendorstore.ErrNotFound):
			return VendorLogin{}, apperr.NotFound("Vendor ID not found")
		}
		return VendorLogin{}, fmt.Errorf("bind vendor identity: %w", err)
	}
	v.ProviderID = &user.ID
	v.PasswordSet = true
	s.log.Info("vendor password set", zap.String("vendor_id", code))

	sess, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		return VendorLogin{}, fmt.Errorf("sign-in after password set: %w", err)
	}
	out := s.vendorSession(sess, v)
	out.Message = "Password set successfully"
	return out, nil
}

func (s *Service) vendorSession(sess identity.Session, v models.Vendor) VendorLogin {
	return VendorLogin{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User: &VendorUser{
			ID:       sess.User.ID,
			VendorID: v.VendorCode,
			Name:     v.Name,
			Role:     models.RoleVendor,
		},
	}
}

// ResolveVendor turns a bearer token into the vendor it belongs to. Vendors
// have no domain restriction.
func (s *Service) ResolveVendor(ctx context.Context, token string) (models.Vendor, error) {
	user, err := s.verify(ctx, token)
	if err != nil {
		return models.Vendor{}, err
	}
	v, err := s.vendors.GetByProviderID(ctx, user.ID)
	if errors.Is(err, vendorstore.ErrNotFound) {
		return models.Vendor{}, apperr.NotFound("User not found in database")
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("load vendor: %w", err)
	}
	return v, nil
}
