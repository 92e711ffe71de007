// internal/app/system/identity/gotrue.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-cleanhttp"
)

// GoTrueConfig configures a GoTrue (Supabase Auth) client.
type GoTrueConfig struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string
	// AnonKey is sent as the apikey header on public endpoints.
	AnonKey string
	// ServiceKey authorizes admin endpoints (user deletion).
	ServiceKey string
	// JWTSecret, when set, lets GetUser verify HS256 access tokens locally
	// instead of calling the /user endpoint.
	JWTSecret string
	Timeout   time.Duration
}

// GoTrue is a Provider backed by the GoTrue REST API.
type GoTrue struct {
	cfg    GoTrueConfig
	base   string
	client *http.Client
}

// NewGoTrue builds a client with a pooled transport.
func NewGoTrue(cfg GoTrueConfig) *GoTrue {
	client := cleanhttp.DefaultPooledClient()
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	} else {
		client.Timeout = 10 * time.Second
	}
	return &GoTrue{
		cfg:    cfg,
		base:   strings.TrimRight(cfg.BaseURL, "/") + "/auth/v1",
		client: client,
	}
}

// apiError is GoTrue's error body. Older servers use error/error_description,
// newer ones code/error_code/msg.
type apiError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

type statusError struct {
	status int
	body   apiError
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity: gotrue status %d: %s", e.status, e.body.text())
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.cfg.AnonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity: gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&ae)
		return &statusError{status: resp.StatusCode, body: ae}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SignUp registers email/password. A taken email yields ErrUserAlreadyExists.
func (g *GoTrue) SignUp(ctx context.Context, email, password string, metadata map[string]any) (User, error) {
	in := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		in["data"] = metadata
	}

	// With autoconfirm the response is a session; otherwise it is the user.
	var out struct {
		User
		Nested *User `json:"user"`
	}
	if err := g.do(ctx, http.MethodPost, "/signup", "", in, &out); err != nil {
		var se *statusError
		if errors.As(err, &se) && isAlreadyRegistered(se) {
			return User{}, ErrUserAlreadyExists
		}
		return User{}, err
	}
	if out.Nested != nil && out.Nested.ID != "" {
		return *out.Nested, nil
	}
	return out.User, nil
}

func isAlreadyRegistered(se *statusError) bool {
	if se.body.ErrorCode == "user_already_exists" || se.body.ErrorCode == "email_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(se.body.text()), "already registered")
}

// SignInWithPassword exchanges credentials for a session.
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	var s Session
	in := map[string]string{"email": email, "password": password}
	if err := g.do(ctx, http.MethodPost, "/token?grant_type=password", "", in, &s); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.status == http.StatusBadRequest || se.status == http.StatusUnauthorized) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	return s, nil
}

// GetUser resolves an access token. With a JWT secret configured the token
// is verified locally.
func (g *GoTrue) GetUser(ctx context.Context, accessToken string) (User, error) {
	if g.cfg.JWTSecret != "" {
		return verifyHS256(accessToken, g.cfg.JWTSecret)
	}
	var u User
	if err := g.do(ctx, http.MethodGet, "/user", accessToken, nil, &u); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status < 500 {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if u.ID == "" {
		return User{}, ErrInvalidToken
	}
	return u, nil
}

// DeleteUser removes a user through the admin API.
func (g *GoTrue) DeleteUser(ctx context.Context, userID string) error {
	if g.cfg.ServiceKey == "" {
		return fmt.Errorf("identity: deleting users requires a service key")
	}
	err := g.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(userID), g.cfg.ServiceKey, nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusNotFound {
		return ErrUserNotFound
	}
	return err
}

// accessClaims is the subset of the GoTrue access-token claims we read.
type accessClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

func verifyHS256(token, secret string) (User, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: claims.Subject, Email: claims.Email, Metadata: claims.UserMetadata}, nil
}
