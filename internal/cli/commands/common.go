package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/cli/client"
	"github.com/postboard-dev/postboard/internal/cli/config"
	"github.com/postboard-dev/postboard/internal/cli/pages"
	"github.com/postboard-dev/postboard/internal/cli/storage"
	"github.com/postboard-dev/postboard/internal/logger"
	"github.com/postboard-dev/postboard/internal/session"
)

var success = color.New(color.FgGreen)

var (
	// errNotSignedIn is returned after a guarded command sent the user to sign in
	errNotSignedIn = errors.New("not signed in. Run 'postboard login' first")
	// errUnauthorized is returned after a guarded command sent the user to /401
	errUnauthorized = errors.New("you are not authorized to do this")
)

// app is one CLI invocation: config, API client, pages and the session
// provider wired together the way every command needs them
type app struct {
	out     io.Writer
	config  *config.Config
	client  *client.Client
	pages   *pages.Navigator
	session *session.Provider
	logger  zerolog.Logger
}

// newLogger returns the CLI logger: console output on w, warn level unless
// POSTBOARD_LOG_LEVEL says otherwise
func newLogger(w io.Writer) zerolog.Logger {
	level := os.Getenv("POSTBOARD_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return logger.New(w, level, "console")
}

// newApp loads the config, opens the session storage and resolves the
// stored session
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'postboard init' to create a configuration file", err)
	}

	log := newLogger(cmd.ErrOrStderr())

	statePath, err := config.GetStatePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage, cfg.Scope(), statePath)
	if err != nil {
		return nil, err
	}

	apiClient := client.New(cfg.APIURL)
	apiClient.SetVersion(cfg.APIVersion)
	apiClient.SetLogger(log)

	nav := pages.New(cmd.OutOrStdout(), apiClient)
	provider := session.NewProvider(store, apiClient, nav, session.WithLogger(log))
	nav.Bind(provider)
	apiClient.SetTokenSource(provider.Tokens())

	provider.Initialize(cmd.Context())

	return &app{
		out:     cmd.OutOrStdout(),
		config:  cfg,
		client:  apiClient,
		pages:   nav,
		session: provider,
		logger:  log,
	}, nil
}

// requireAuth runs the sign-in guard for path
func (a *app) requireAuth(cmd *cobra.Command, path string) error {
	ok, err := a.session.RequireAuth(cmd.Context(), path)
	if err != nil {
		return err
	}
	if !ok {
		return errNotSignedIn
	}
	return nil
}

// requirePermission runs the permission guard
func (a *app) requirePermission(cmd *cobra.Command, required ...string) error {
	ok, err := a.session.RequirePermission(cmd.Context(), required...)
	if err != nil {
		return err
	}
	if !ok {
		return errUnauthorized
	}
	return nil
}

// requireRole runs the role guard
func (a *app) requireRole(cmd *cobra.Command, roleKey string) error {
	ok, err := a.session.RequireRole(cmd.Context(), roleKey)
	if err != nil {
		return err
	}
	if !ok {
		return errUnauthorized
	}
	return nil
}
