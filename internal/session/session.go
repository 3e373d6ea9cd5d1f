// Package session holds the console's single bearer credential.
//
// A Store is created once per process, initialised from its Backend on
// start-up and cleared on logout or when the server reports the session as
// unauthenticated. Absence of a token means "not authenticated".
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the persisted credential.
const (
	KeyringService = "admin-console"
	KeyringUser    = "session"
)

// ErrNoCredential is returned by Identity when the store is empty.
var ErrNoCredential = errors.New("session: no credential")

// Backend persists the credential between runs.
type Backend interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// Store is safe for concurrent use; request commands read it from their own
// goroutines while the UI loop may clear it.
type Store struct {
	mu      sync.Mutex
	token   string
	backend Backend
}

// NewStore returns an empty store. A nil backend keeps the credential in
// memory only.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = &MemoryBackend{}
	}
	return &Store{backend: backend}
}

// Init loads the persisted credential, if any. A fallback token (from flags
// or the environment) wins over the persisted one and is saved.
func (s *Store) Init(fallback string) error {
	fallback = strings.TrimSpace(fallback)
	if fallback != "" {
		return s.Set(fallback)
	}
	token, err := s.backend.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

// Token returns the current credential or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set replaces the credential and persists it.
func (s *Store) Set(token string) error {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if token == "" {
		return s.backend.Delete()
	}
	return s.backend.Save(token)
}

// Clear drops the credential in memory and in the backend.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return s.backend.Delete()
}

// Identity is what the console can tell about a token without verifying it.
type Identity struct {
	Subject   string
	Name      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an exp claim in the past.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Identity decodes the claims of a JWT credential. Opaque tokens yield a
// zero Identity and no error.
func (s *Store) Identity() (Identity, error) {
	token := s.Token()
	if token == "" {
		return Identity{}, ErrNoCredential
	}
	if strings.Count(token, ".") != 2 {
		return Identity{}, nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Identity{}, nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, nil
	}
	var id Identity
	id.Subject, _ = claims.GetSubject()
	for _, key := range []string{"name", "username", "email"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id.Name = v
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// MemoryBackend keeps the token for the lifetime of the process.
type MemoryBackend struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryBackend) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryBackend) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// KeyringBackend stores the token in the OS keychain under one entry.
type KeyringBackend struct {
	Service string
	User    string
}

// NewKeyringBackend uses the default service/user pair.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{Service: KeyringService, User: KeyringUser}
}

func (k *KeyringBackend) Load() (string, error) {
	token, err := keyring.Get(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (k *KeyringBackend) Save(token string) error {
	return keyring.Set(k.Service, k.User, token)
}

func (k *KeyringBackend) Delete() error {
	err := keyring.Delete(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
