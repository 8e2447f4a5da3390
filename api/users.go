package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rentaiagent/adapters/backend"
	"rentaiagent/internal/errors"
)

// User is a registered account held by the stub
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	UserType     string
	Profile      backend.Profile
	Products     []backend.SelectedProduct
	CreatedAt    time.Time
}

// UserStore is an in-memory user table keyed by lower-cased email
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*User
	cost  int
}

// NewUserStore creates an empty store
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User), cost: bcrypt.DefaultCost}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create adds a user. It returns a CONFLICT error when the email is taken.
func (s *UserStore) Create(req backend.RegisterRequest, now time.Time) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, errors.Internal("failed to hash password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(req.Email)
	if _, ok := s.users[key]; ok {
		return nil, errors.Conflict("email already registered", nil).WithContext("email", req.Email)
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		UserType:     "customer",
		Profile:      req.Profile,
		Products:     append([]backend.SelectedProduct(nil), req.SelectedProducts...),
		CreatedAt:    now,
	}
	s.users[key] = u
	return u, nil
}

// Authenticate returns the user when password matches
func (s *UserStore) Authenticate(email, password string) (*User, error) {
	u, ok := s.Lookup(email)
	if !ok {
		return nil, errors.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, errors.Unauthorized("invalid email or password")
	}
	return u, nil
}

// Lookup finds a user by email
func (s *UserStore) Lookup(email string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[emailKey(email)]
	return u, ok
}

// Len returns the number of users
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
