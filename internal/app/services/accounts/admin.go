package accounts

import (
	"context"
	"errors"
	"fmt"

	adminstore "github.com/dalemusser/contributor/internal/app/store/admins"
	"github.com/dalemusser/contributor/internal/app/system/apperr"
	"github.com/dalemusser/contributor/internal/app/system/identity"
	"github.com/dalemusser/contributor/internal/app/system/inputval"
	"github.com/dalemusser/contributor/internal/app/system/normalize"
	"github.com/dalemusser/contributor/internal/domain/models"
	"go.uber.org/zap"
)

const msgBadDomain = "Unauthorized email domain"

// RegisterAdminInput is the admin sign-up request.
type RegisterAdminInput struct {
	Email    string `json:"email" validate:"required,emailaddr" label:"email"`
	Password string `json:"password" validate:"required,min=6" label:"password"`
	Name     string `json:"name" validate:"max=200" label:"name"`
}

// AdminSession is returned by a successful admin login.
type AdminSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Admin        models.Admin `json:"admin"`
}

// RegisterAdmin creates the provider account and the local admin record.
// The domain is checked before the provider is contacted, so an outside
// email fails the same way whatever the password.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (models.Admin, error) {
	in.Email = normalize.Email(in.Email)
	in.Name = normalize.Name(in.Name)

	if in.Email != "" && !s.adminDomainOK(in.Email) {
		s.log.Warn("admin registration outside domain", zap.String("email", in.Email))
		return models.Admin{}, apperr.Forbidden(msgBadDomain)
	}
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Admin{}, apperr.Validation(res.All())
	}

	user, err := s.idp.SignUp(ctx, in.Email, in.Password, map[string]any{"name": in.Name, "role": models.RoleAdmin})
	if errors.Is(err, identity.ErrUserAlreadyExists) {
		// Re-registration: the provider account exists, so prove ownership
		// and refresh the local record.
		sess, serr := s.idp.SignInWithPassword(ctx, in.Email, in.Password)
		if serr != nil {
			return models.Admin{}, apperr.Conflict("An account with this email already exists")
		}
		user, err = sess.User, nil
	}
	if err != nil {
		return models.Admin{}, apperr.Wrap(apperr.KindBadRequest, "Identity provider sign-up failed", err)
	}

	email := normalize.Email(user.Email)
	if email == "" {
		email = in.Email
	}
	admin, err := s.admins.Upsert(ctx, models.Admin{
		ProviderID: user.ID,
		Email:      email,
		Name:       in.Name,
	})
	if err != nil {
		return models.Admin{}, fmt.Errorf("upsert admin: %w", err)
	}
	s.log.Info("admin registered", zap.String("email", email), zap.String("provider_id", user.ID))
	return admin, nil
}

// LoginAdmin signs an admin in with email and password.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (AdminSession, error) {
	email = normalize.Email(email)
	if email == "" || password == "" {
		return AdminSession{}, apperr.Validation("email and password are required")
	}
	if !s.adminDomainOK(email) {
		s.log.Warn("admin login outside domain", zap.String("email", email))
		return AdminSession{}, apperr.Forbidden(msgBadDomain)
	}

	sess, err := s.idp.SignInWithPassword(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return AdminSession{}, apperr.Unauthenticated("Invalid email or password")
	}
	if err != nil {
		return AdminSession{}, fmt.Errorf("admin sign-in: %w", err)
	}

	admin, err := s.GetAdmin(ctx, sess.User.ID)
	if err != nil {
		return AdminSession{}, err
	}
	return AdminSession{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, Admin: admin}, nil
}

// GetAdmin returns the admin bound to a provider user id.
func (s *Service) GetAdmin(ctx context.Context, providerID string) (models.Admin, error) {
	admin, err := s.admins.GetByProviderID(ctx, providerID)
	if errors.Is(err, adminstore.ErrNotFound) {
		return models.Admin{}, apperr.NotFound("Admin not found in database")
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("load admin: %w", err)
	}
	return admin, nil
}

// ResolveAdmin turns a bearer token into the admin it belongs to.
func (s *Service) ResolveAdmin(ctx context.Context, token string) (models.Admin, error) {
	user, err := s.verify(ctx, token)
	if err != nil {
		return models.Admin{}, err
	}
	if !s.adminDomainOK(user.Email) {
		s.log.Warn("admin access outside domain", zap.String("email", normalize.Email(user.Email)))
		return models.Admin{}, apperr.Forbidden(msgBadDomain)
	}
	return s.GetAdmin(ctx, user.ID)
}

// verify asks the provider who owns token. Any rejection is
// Unauthenticated.
func (s *Service) verify(ctx context.Context, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, apperr.Unauthenticated("Missing Bearer token")
	}
	user, err := s.idp.GetUser(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			s.log.Warn("token verification error", zap.Error(err))
		}
		return identity.User{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", err)
	}
	return user, nil
}
