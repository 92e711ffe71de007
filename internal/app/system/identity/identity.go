// internal/app/system/identity/identity.go
package identity

import (
	"context"
	"errors"
)

var (
	// ErrUserAlreadyExists is returned by SignUp when the email is taken.
	ErrUserAlreadyExists = errors.New("identity: user already registered")
	// ErrInvalidCredentials is returned by SignInWithPassword on a bad
	// email/password pair.
	ErrInvalidCredentials = errors.New("identity: invalid login credentials")
	// ErrInvalidToken is returned by GetUser for an expired, malformed or
	// revoked access token.
	ErrInvalidToken = errors.New("identity: invalid access token")
	// ErrUserNotFound is returned by DeleteUser for an unknown id.
	ErrUserNotFound = errors.New("identity: user not found")
)

// User is the provider's view of an account.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is the token pair issued on sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	User         User   `json:"user"`
}

// Provider is the external identity service. Credentials and tokens never
// live in the directory store.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	GetUser(ctx context.Context, accessToken string) (User, error)
	DeleteUser(ctx context.Context, userID string) error
}
