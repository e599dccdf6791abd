package session

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TokenStore keeps the session credential under AccessTokenKey
type TokenStore struct {
	storage Storage
	logger  zerolog.Logger
}

// NewTokenStore creates a token store over storage
func NewTokenStore(storage Storage, logger zerolog.Logger) *TokenStore {
	return &TokenStore{storage: storage, logger: logger}
}

// Get returns the stored credential. Storage errors are logged and reported
// as an absent credential.
func (t *TokenStore) Get() (string, bool) {
	token, ok, err := t.storage.Get(AccessTokenKey)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to read credential")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Set persists the credential
func (t *TokenStore) Set(token string) error {
	if err := t.storage.Set(AccessTokenKey, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear deletes the credential. Clearing a missing credential is not an error.
func (t *TokenStore) Clear() error {
	if err := t.storage.Delete(AccessTokenKey); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
