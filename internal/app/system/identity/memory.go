// internal/app/system/identity/memory.go
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memUser struct {
	user User
	hash []byte
}

// Memory is an in-process Provider for local development and tests.
// Accounts and tokens vanish on restart.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*memUser
	byEmail map[string]*memUser
	tokens  map[string]string // access token -> user id
	cost    int
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*memUser),
		byEmail: make(map[string]*memUser),
		tokens:  make(map[string]string),
		cost:    bcrypt.MinCost,
	}
}

func (m *Memory) SignUp(_ context.Context, email, password string, metadata map[string]any) (User, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[key]; ok {
		return User{}, ErrUserAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return User{}, err
	}
	u := &memUser{
		user: User{ID: uuid.NewString(), Email: key, Metadata: metadata},
		hash: hash,
	}
	m.byID[u.user.ID] = u
	m.byEmail[key] = u
	return u.user, nil
}

func (m *Memory) SignInWithPassword(_ context.Context, email, password string) (Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[key]
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	access := uuid.NewString()
	m.tokens[access] = u.user.ID
	return Session{
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresIn:    3600,
		User:         u.user,
	}, nil
}

func (m *Memory) GetUser(_ context.Context, accessToken string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.tokens[accessToken]
	if !ok {
		return User{}, ErrInvalidToken
	}
	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrInvalidToken
	}
	return u.user, nil
}

func (m *Memory) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	delete(m.byID, userID)
	delete(m.byEmail, u.user.Email)
	for tok, id := range m.tokens {
		if id == userID {
			delete(m.tokens, tok)
		}
	}
	return nil
}
