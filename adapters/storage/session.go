package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rentaiagent/adapters/backend"
	"rentaiagent/internal/errors"
)

// Auth keys. Clear removes all of them from every scope.
const (
	KeyAuthToken    = "authToken"
	KeyUserEmail    = "userEmail"
	KeyUserType     = "userType"
	KeyUserProducts = "userProducts"
)

var authKeys = []string{KeyAuthToken, KeyUserEmail, KeyUserType, KeyUserProducts}

// DefaultTokenTTL applies to tokens that carry no exp claim
const DefaultTokenTTL = time.Hour

// StoredToken is the persisted auth token
type StoredToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Expired reports whether the token is past its expiry at now
func (t StoredToken) Expired(now time.Time) bool {
	return t.ExpiresAt > 0 && now.UnixMilli() > t.ExpiresAt
}

// Session stores the logged-in user's token, identity and cached products.
// Remember-me selects the persistent scope; otherwise the session scope is
// used.
type Session struct {
	store *FileStore
	now   func() time.Time
}

// NewSession creates a session over store
func NewSession(store *FileStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Login stores a freshly issued token along with the user identity.
func (s *Session) Login(ctx context.Context, res *backend.LoginResult, remember bool) error {
	scope := ScopeSession
	if remember {
		scope = ScopePersistent
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}

	token := StoredToken{Token: res.Token, ExpiresAt: TokenExpiry(res.Token, s.now()).UnixMilli()}
	if err := s.store.Set(ctx, scope, KeyAuthToken, token); err != nil {
		return err
	}
	if err := s.store.Set(ctx, scope, KeyUserEmail, res.Email); err != nil {
		return err
	}
	return s.store.Set(ctx, scope, KeyUserType, res.UserType)
}

// TokenExpiry reads the exp claim without verifying the signature; the
// client never holds the signing key. Tokens without one expire an hour
// after now.
func TokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return now.Add(DefaultTokenTTL)
}

// Token returns the stored token. Expired tokens clear the whole session.
func (s *Session) Token(ctx context.Context) (string, error) {
	scope, raw, err := s.find(ctx, KeyAuthToken)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", errors.Unauthorized("not logged in")
	}

	var token StoredToken
	if err := json.Unmarshal(raw, &token); err != nil || token.Token == "" {
		// Older clients stored the bare token string.
		var bare string
		if json.Unmarshal(raw, &bare) != nil || bare == "" {
			return "", errors.Unauthorized("not logged in")
		}
		return bare, nil
	}
	if token.Expired(s.now()) {
		if err := s.Clear(ctx); err != nil {
			return "", err
		}
		return "", errors.Unauthorized("session expired").WithContext("scope", string(scope))
	}
	return token.Token, nil
}

// Email returns the logged-in user's email, or ""
func (s *Session) Email(ctx context.Context) (string, error) {
	_, raw, err := s.find(ctx, KeyUserEmail)
	if err != nil || raw == nil {
		return "", err
	}
	var email string
	if json.Unmarshal(raw, &email) != nil {
		return "", nil
	}
	return email, nil
}

// SaveProducts caches the product list next to the token
func (s *Session) SaveProducts(ctx context.Context, products []backend.UserProduct) error {
	scope, raw, err := s.find(ctx, KeyAuthToken)
	if err != nil {
		return err
	}
	if raw == nil {
		scope = ScopeSession
	}
	return s.store.Set(ctx, scope, KeyUserProducts, products)
}

// Products returns the cached product list. Both a bare array and a
// {data: [...]} object are accepted; anything else reads as empty.
func (s *Session) Products(ctx context.Context) ([]backend.UserProduct, error) {
	_, raw, err := s.find(ctx, KeyUserProducts)
	if err != nil || raw == nil {
		return nil, err
	}
	var products []backend.UserProduct
	if json.Unmarshal(raw, &products) == nil {
		return products, nil
	}
	var wrapped struct {
		Data []backend.UserProduct `json:"data"`
	}
	if json.Unmarshal(raw, &wrapped) == nil {
		return wrapped.Data, nil
	}
	return nil, nil
}

// Clear removes every auth key from every scope
func (s *Session) Clear(ctx context.Context) error {
	for _, scope := range Scopes {
		for _, key := range authKeys {
			if err := s.store.Delete(ctx, scope, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// find looks key up in the session scope, then the persistent scope
func (s *Session) find(ctx context.Context, key string) (Scope, json.RawMessage, error) {
	for _, scope := range Scopes {
		raw, ok, err := s.store.GetRaw(ctx, scope, key)
		if err != nil {
			return "", nil, err
		}
		if ok {
			return scope, raw, nil
		}
	}
	return "", nil, nil
}
