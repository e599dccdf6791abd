// Package session resolves and holds the signed-in user of a postboard
// client: the stored credential, the profile behind it, the permission
// checks pages use to gate actions, and the sign-in/sign-out flows.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ProfileFetcher loads the user a credential belongs to. A nil user with a
// nil error means the API answered with an empty payload.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, credential string) (*User, error)
}

// Navigator moves the client to a page
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Snapshot is a point-in-time view of the session
type Snapshot struct {
	State           State
	User            *User
	IsAuthenticated bool
	IsLoading       bool
}

// Provider owns the session state of one client instance
type Provider struct {
	tokens    *TokenStore
	redirects *Redirects
	fetcher   ProfileFetcher
	navigator Navigator
	ready     func(ctx context.Context) error
	logger    zerolog.Logger

	mu         sync.Mutex
	state      State
	user       *User
	generation uint64
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger sets the logger used for absorbed failures
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithReadiness overrides the readiness check run before storage is read.
// By default the storage's own Ready method is used when it has one.
func WithReadiness(ready func(ctx context.Context) error) Option {
	return func(p *Provider) {
		p.ready = ready
	}
}

// NewProvider creates a provider. Nothing is read until Initialize is called.
func NewProvider(storage Storage, fetcher ProfileFetcher, navigator Navigator, opts ...Option) *Provider {
	p := &Provider{
		fetcher:   fetcher,
		navigator: navigator,
		logger:    zerolog.Nop(),
		state:     Uninitialized,
	}

	if r, ok := storage.(Readier); ok {
		p.ready = r.Ready
	} else {
		p.ready = func(context.Context) error { return nil }
	}

	for _, opt := range opts {
		opt(p)
	}

	p.tokens = NewTokenStore(storage, p.logger)
	p.redirects = NewRedirects(storage, p.logger)

	return p
}

// Tokens returns the provider's token store
func (p *Provider) Tokens() *TokenStore {
	return p.tokens
}

// Redirects returns the provider's redirect coordinator
func (p *Provider) Redirects() *Redirects {
	return p.redirects
}

// Initialize runs session resolution once. Later calls return the current
// state without resolving again; use Resolve to re-trigger.
func (p *Provider) Initialize(ctx context.Context) State {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	if state != Uninitialized {
		return state
	}
	return p.Resolve(ctx)
}

// Resolve reads the stored credential and, if there is one, fetches the
// profile behind it. It never fails: every error degrades to Anonymous.
// It does nothing while the session is Authenticated or already Loading.
func (p *Provider) Resolve(ctx context.Context) State {
	if err := p.ready(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("Session storage not ready, skipping resolution")
		return p.State()
	}

	p.mu.Lock()
	if p.state == Authenticated || p.state == Loading {
		state := p.state
		p.mu.Unlock()
		return state
	}

	p.generation++
	generation := p.generation

	credential, ok := p.tokens.Get()
	if !ok {
		p.state = Anonymous
		p.user = nil
		p.mu.Unlock()
		p.logger.Debug().Err(ErrNoCredential).Msg("Resolved anonymous session")
		return Anonymous
	}

	p.state = Loading
	p.mu.Unlock()

	user, err := p.fetchProfile(ctx, credential)

	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation {
		p.logger.Debug().Msg("Discarding stale profile response")
		return p.state
	}

	if err != nil {
		p.logger.Warn().Err(err).Msg("Falling back to anonymous session")
		p.state = Anonymous
		p.user = nil
		return Anonymous
	}

	if user == nil {
		p.logger.Debug().Msg("Empty profile payload, session is anonymous")
		p.state = Anonymous
		p.user = nil
		return Anonymous
	}

	p.state = Authenticated
	p.user = user.clone()
	p.logger.Debug().Str("user_id", user.ID).Msg("Resolved authenticated session")
	return Authenticated
}

func (p *Provider) fetchProfile(ctx context.Context, credential string) (*User, error) {
	user, err := p.fetcher.FetchProfile(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileFetchFailed, err)
	}
	if user == nil {
		return nil, nil
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Login persists the credential, marks the session authenticated and sends
// the user to the pending redirect, or home when there is none. The session
// is authenticated before navigation starts.
func (p *Provider) Login(ctx context.Context, creds Credentials) error {
	if creds.Token == "" {
		return ErrEmptyCredential
	}

	if err := p.tokens.Set(creds.Token); err != nil {
		return err
	}

	user := creds.User.clone()

	p.mu.Lock()
	p.generation++
	p.state = Authenticated
	p.user = user
	p.mu.Unlock()

	p.logger.Info().Str("user_id", user.ID).Msg("Signed in")

	destination := PathHome
	if path, ok := p.redirects.Consume(); ok {
		destination = path
	}

	return p.navigate(ctx, destination)
}

// Logout clears the credential and any pending redirect, resets the session
// to Anonymous and sends the user to the sign-in page. Storage failures are
// logged and returned, but every step still runs.
func (p *Provider) Logout(ctx context.Context) error {
	var errs []error

	if err := p.tokens.Clear(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear credential")
		errs = append(errs, err)
	}

	p.mu.Lock()
	p.generation++
	p.state = Anonymous
	p.user = nil
	p.mu.Unlock()

	if err := p.redirects.Clear(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear pending redirect")
		errs = append(errs, err)
	}

	p.logger.Info().Msg("Signed out")

	if err := p.navigate(ctx, PathSignIn); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RequireAuth guards a page. When the session is not authenticated it
// remembers path and sends the user to sign in, returning false.
func (p *Provider) RequireAuth(ctx context.Context, path string) (bool, error) {
	if p.IsAuthenticated() {
		return true, nil
	}

	if err := p.redirects.Remember(path); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("Failed to remember redirect")
	}

	return false, p.navigate(ctx, PathSignIn)
}

// RequireRole sends the user to the unauthorized page unless they hold roleKey
func (p *Provider) RequireRole(ctx context.Context, roleKey string) (bool, error) {
	if p.HasRole(roleKey) {
		return true, nil
	}
	return false, p.navigate(ctx, PathUnauthorized)
}

// RequirePermission sends the user to the unauthorized page unless they hold
// every permission listed
func (p *Provider) RequirePermission(ctx context.Context, required ...string) (bool, error) {
	if p.HasPermission(required...) {
		return true, nil
	}
	return false, p.navigate(ctx, PathUnauthorized)
}

func (p *Provider) navigate(ctx context.Context, path string) error {
	if err := p.navigator.Navigate(ctx, path); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", path, err)
	}
	return nil
}

// HasPermission reports whether the current user holds every permission listed
func (p *Provider) HasPermission(required ...string) bool {
	return p.User().HasPermission(required...)
}

// HasRole reports whether the current user's role key is roleKey
func (p *Provider) HasRole(roleKey string) bool {
	return p.User().HasRole(roleKey)
}

// User returns a copy of the current user, or nil
func (p *Provider) User() *User {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.user.clone()
}

// State returns the current resolution state
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsAuthenticated reports whether a user is signed in
func (p *Provider) IsAuthenticated() bool {
	return p.State() == Authenticated
}

// IsLoading reports whether resolution has not finished yet
func (p *Provider) IsLoading() bool {
	state := p.State()
	return state == Uninitialized || state == Loading
}

// Token returns the stored credential
func (p *Provider) Token() (string, bool) {
	return p.tokens.Get()
}

// Snapshot returns the current state and user together
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	user := p.user.clone()

	return Snapshot{
		State:           p.state,
		User:            user,
		IsAuthenticated: p.state == Authenticated,
		IsLoading:       p.state == Uninitialized || p.state == Loading,
	}
}
