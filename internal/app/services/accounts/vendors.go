package accounts

import (
	"context"
	"errors"
	"fmt"

	vendorstore "github.com/dalemusser/contributor/internal/app/store/vendors"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/app/system/inputval"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.uber.org/zap"
)

// VendorInput is one vendor to provision.
type VendorInput struct {
	VendorID string `json:"vendor_id" validate:"required,vendorcode" label:"vendor_id"`
	Name     string `json:"name" validate:"required,nonblank,max=200" label:"name"`
}

func (in *VendorInput) clean() error {
	in.VendorID = normalize.VendorCode(in.VendorID)
	in.Name = normalize.Name(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		return apperr.Validation(res.All())
	}
	return nil
}

// CreateVendor provisions one vendor with no password.
func (s *Service) CreateVendor(ctx context.Context, in VendorInput) (models.Vendor, error) {
	if err := in.clean(); err != nil {
		return models.Vendor{}, err
	}
	v, err := s.vendors.Create(ctx, models.Vendor{VendorCode: in.VendorID, Name: in.Name})
	if errors.Is(err, vendorstore.ErrDuplicateCode) {
		return models.Vendor{}, apperr.Conflict("Vendor ID already exists")
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	s.log.Info("vendor created", zap.String("vendor_id", v.VendorCode), zap.String("name", v.Name))
	return v, nil
}

// CreateVendors provisions a batch. The whole batch is rejected, with
// nothing created, when any code repeats within it or already exists.
func (s *Service) CreateVendors(ctx context.Context, ins []VendorInput) ([]models.Vendor, error) {
	if len(ins) == 0 {
		return nil, apperr.Validation("at least one vendor is required")
	}
	codes := make([]string, len(ins))
	seen := make(map[string]bool, len(ins))
	for i := range ins {
		if err := ins[i].clean(); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("vendor %d: %s", i+1, apperr.Message(err)))
		}
		codes[i] = ins[i].VendorID
		if seen[codes[i]] {
			return nil, apperr.BadRequest("Duplicate Vendor IDs in request")
		}
		seen[codes[i]] = true
	}

	existing, err := s.vendors.ExistingCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("check existing vendor codes: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict(fmt.Sprintf("Vendor IDs already exist: %v", existing))
	}

	vs := make([]models.Vendor, len(ins))
	for i, in := range ins {
		vs[i] = models.Vendor{VendorCode: in.VendorID, Name: in.Name}
	}
	created, err := s.vendors.CreateMany(ctx, vs)
	if errors.Is(err, vendorstore.ErrDuplicateCode) {
		return nil, apperr.Conflict("Vendor IDs already exist")
	}
	if err != nil {
		return nil, fmt.Errorf("create vendors: %w", err)
	}
	s.log.Info("vendors bulk created", zap.Int("count", len(created)))
	return created, nil
}

// ListVendors returns every vendor.
func (s *Service) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	return s.vendors.List(ctx)
}

// GetVendor returns one vendor by code.
func (s *Service) GetVendor(ctx context.Context, code string) (models.Vendor, error) {
	return s.vendorByCode(ctx, normalize.VendorCode(code), "Vendor not found")
}

// DeleteVendor removes the provider account, when one is bound, and then
// the local record. A provider failure is logged and does not stop the
// local delete.
func (s *Service) DeleteVendor(ctx context.Context, code string) error {
	v, err := s.GetVendor(ctx, code)
	if err != nil {
		return err
	}
	if v.ProviderID != nil && *v.ProviderID != "" {
		if err := s.idp.DeleteUser(ctx, *v.ProviderID); err != nil {
			level := s.log.Warn
			if errors.Is(err, identity.ErrUserNotFound) {
				level = s.log.Info
			}
			level("could not delete provider account for vendor",
				zap.String("vendor_id", v.VendorCode), zap.Error(err))
		}
	}
	if err := s.vendors.Delete(ctx, v.VendorCode); err != nil {
		if errors.Is(err, vendorstore.ErrNotFound) {
			return apperr.NotFound("Vendor not found")
		}
		return fmt.Errorf("delete vendor: %w", err)
	}
	s.log.Info("vendor deleted", zap.String("vendor_id", v.VendorCode))
	return nil
}
