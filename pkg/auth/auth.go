// Package auth provides file-backed user accounts and in-memory
// session tokens for the dashboard server.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrUserExists is returned when registering a name already taken.
var ErrUserExists = errors.New("user already exists")

// Store holds user credentials in a JSON file mapping username to a
// sha256 password hash.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store over the users file at path. The file is
// created on first registration.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *Store) loadUsers() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	users := map[string]string{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return users, nil
}

func (s *Store) saveUsers(users map[string]string) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}

// Authenticate reports whether the username and password match a
// stored account.
func (s *Store) Authenticate(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return false, err
	}
	stored, ok := users[username]
	if !ok {
		return false, nil
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(hashPassword(password))) == 1
	return match, nil
}

// Register creates a new account.
func (s *Store) Register(username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password must be non-empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	if _, ok := users[username]; ok {
		return ErrUserExists
	}
	users[username] = hashPassword(password)
	return s.saveUsers(users)
}
