package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Redirects remembers the page a user was headed to before being sent to
// sign in.
type Redirects struct {
	storage Storage
	logger  zerolog.Logger
	mu      sync.Mutex
}

// NewRedirects creates a redirect coordinator over storage
func NewRedirects(storage Storage, logger zerolog.Logger) *Redirects {
	return &Redirects{storage: storage, logger: logger}
}

// Remember stores path as the pending redirect, replacing any previous one
func (r *Redirects) Remember(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.Set(RedirectKey, path); err != nil {
		return fmt.Errorf("failed to save redirect: %w", err)
	}
	return nil
}

// Consume returns the pending redirect and clears it. A given path is
// returned at most once.
func (r *Redirects) Consume() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, ok, err := r.storage.Get(RedirectKey)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to read redirect")
		return "", false
	}
	if !ok || path == "" {
		return "", false
	}

	if err := r.storage.Delete(RedirectKey); err != nil {
		// Not returning the path keeps it from being consumed twice
		r.logger.Warn().Err(err).Str("path", path).Msg("Failed to clear redirect")
		return "", false
	}
	return path, true
}

// Clear removes the pending redirect whether or not one is set
func (r *Redirects) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.Delete(RedirectKey); err != nil {
		return fmt.Errorf("failed to clear redirect: %w", err)
	}
	return nil
}
