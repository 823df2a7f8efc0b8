// Package auth resolves API keys to principals. The upload core never sees
// keys or identities — only the permission-string set carried on the
// request — so this package stays entirely at the transport boundary.
package auth

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Identity is an authenticated principal: a name and the permission set the
// upload policies are checked against.
type Identity struct {
	Name        string
	Permissions []string
}

// Store persists API keys in the service database.
type Store struct {
	db *sql.DB
}

// NewStore creates a key store over the service database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateKey generates and stores a new API key bound to a permission set.
// Returns the plaintext key; it is not recoverable afterwards.
func (s *Store) CreateKey(name string, permissions []string) (string, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`
		INSERT INTO api_keys (name, key_hash, permissions, created_at)
		VALUES (?, ?, ?, ?)
	`, name, HashKey(key), strings.Join(permissions, ","), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to store API key: %w", err)
	}
	return key, nil
}

// Lookup resolves a plaintext API key to its identity. Returns nil for an
// unknown key.
func (s *Store) Lookup(key string) (*Identity, error) {
	var name, permissions string
	err := s.db.QueryRow(`
		SELECT name, permissions FROM api_keys WHERE key_hash = ?
	`, HashKey(key)).Scan(&name, &permissions)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	var perms []string
	if permissions != "" {
		perms = strings.Split(permissions, ",")
	}
	return &Identity{Name: name, Permissions: perms}, nil
}

// CountKeys returns the number of stored keys (used by bootstrap).
func (s *Store) CountKeys() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM api_keys").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count API keys: %w", err)
	}
	return n, nil
}
