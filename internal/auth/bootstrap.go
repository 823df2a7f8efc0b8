package auth

import (
	"labelpress/internal/constants"
	"labelpress/internal/logger"
)

// BootstrapResult carries the one-time plaintext credentials created on
// first run.
type BootstrapResult struct {
	Name   string
	APIKey string
}

// Bootstrap creates an admin API key when the store holds none yet.
// Returns nil when keys already exist.
func Bootstrap(store *Store, log *logger.Logger) (*BootstrapResult, error) {
	count, err := store.CountKeys()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	key, err := store.CreateKey("admin", []string{constants.PermissionAdmin})
	if err != nil {
		return nil, err
	}

	log.Info("Auth: no API keys found — created initial admin key")
	return &BootstrapResult{Name: "admin", APIKey: key}, nil
}
