package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "postboard-cli"

// probeKey is read by Ready to find out whether the keychain answers at all
const probeKey = "postboard-probe"

// Keyring stores values in the OS keychain/credential manager. Entries are
// scoped so that sessions against different API hosts do not collide.
type Keyring struct {
	scope string
}

// NewKeyring creates a keyring storage scoped to scope (usually the API host)
func NewKeyring(scope string) *Keyring {
	return &Keyring{scope: scope}
}

// getKeyringKey returns a unique key for storing a value per API host
func (k *Keyring) getKeyringKey(key string) string {
	return fmt.Sprintf("%s-%s", key, k.scope)
}

// Get retrieves a value from the OS keychain
func (k *Keyring) Get(key string) (string, bool, error) {
	value, err := keyring.Get(service, k.getKeyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Set persists a value in the OS keychain
func (k *Keyring) Set(key, value string) error {
	if err := keyring.Set(service, k.getKeyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from the OS keychain
func (k *Keyring) Delete(key string) error {
	if err := keyring.Delete(service, k.getKeyringKey(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Ready reports whether the keychain can be reached. A missing probe entry
// is the expected answer from a working keychain.
func (k *Keyring) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := keyring.Get(service, probeKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain unavailable: %w", err)
	}
	return nil
}
