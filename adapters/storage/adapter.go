// Package storage provides the file-backed local storage of the client:
// the auth session and the outbound email log.
//
// Values live in one of two scopes. ScopeSession holds data that should not
// outlive a login; ScopePersistent holds data kept across logins.
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"rentaiagent/internal/logging"
)

// Scope selects a storage area
type Scope string

const (
	ScopeSession    Scope = "session"
	ScopePersistent Scope = "local"
)

// Scopes lists every scope, in lookup order
var Scopes = []Scope{ScopeSession, ScopePersistent}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps one JSON document per key and scope under a base
// directory. With a passphrase, documents are sealed at rest.
type FileStore struct {
	basePath   string
	passphrase string
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewFileStore creates a file store rooted at basePath. An empty
// passphrase stores plain JSON. A nil logger uses the global logger.
func NewFileStore(basePath, passphrase string, logger *zap.Logger) (*FileStore, error) {
	for _, scope := range Scopes {
		if err := os.MkdirAll(filepath.Join(basePath, string(scope)), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &FileStore{
		basePath:   basePath,
		passphrase: passphrase,
		logger:     logging.Named(logger, "storage"),
	}, nil
}

// Sealed reports whether documents are encrypted at rest
func (s *FileStore) Sealed() bool {
	return s.passphrase != ""
}

func (s *FileStore) path(scope Scope, key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	ext := ".json"
	if s.Sealed() {
		ext = ".sealed"
	}
	return filepath.Join(s.basePath, string(scope), key+ext), nil
}

// Set stores v under key in scope
func (s *FileStore) Set(ctx context.Context, scope Scope, key string, v interface{}) error {
	path, err := s.path(scope, key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if s.Sealed() {
		if data, err = seal(s.passphrase, data); err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

// Get decodes the value under key in scope into out. It reports false when
// the key is absent or its content is malformed; a wrong passphrase is an
// error.
func (s *FileStore) Get(ctx context.Context, scope Scope, key string, out interface{}) (bool, error) {
	raw, ok, err := s.GetRaw(ctx, scope, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("ignoring malformed stored value", zap.String("scope", string(scope)), zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// GetRaw returns the stored JSON under key in scope
func (s *FileStore) GetRaw(ctx context.Context, scope Scope, key string) (json.RawMessage, bool, error) {
	path, err := s.path(scope, key)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if stderrors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if s.Sealed() {
		if data, err = open(s.passphrase, data); err != nil {
			if stderrors.Is(err, ErrWrongPassphrase) {
				return nil, false, err
			}
			s.logger.Warn("ignoring unreadable sealed value", zap.String("key", key), zap.Error(err))
			return nil, false, nil
		}
	}
	if !json.Valid(data) {
		s.logger.Warn("ignoring malformed stored value", zap.String("scope", string(scope)), zap.String("key", key))
		return nil, false, nil
	}
	return data, true, nil
}

// Delete removes key from scope. Absent keys are not an error.
func (s *FileStore) Delete(ctx context.Context, scope Scope, key string) error {
	path, err := s.path(scope, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
