package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/cli/prompt"
	"github.com/postboard-dev/postboard/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the postboard API",
		Long: `Sign in with email and password. The token is kept in the configured
storage backend. When a guarded command sent you here, you are taken back
to it after signing in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set POSTBOARD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set POSTBOARD_PASSWORD, will prompt if not provided)")

	return cmd
}

// resolvePassword takes the password from the flag, then the environment,
// then an interactive prompt
func resolvePassword(cmd *cobra.Command, password string) (string, error) {
	if password == "" {
		password = os.Getenv("POSTBOARD_PASSWORD")
	}
	if password != "" {
		return password, nil
	}

	password, err := prompt.Password(cmd.ErrOrStderr(), "Password")
	if errors.Is(err, prompt.ErrNotInteractive) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or POSTBOARD_PASSWORD env var)")
	}
	return password, err
}

func runLogin(cmd *cobra.Command, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("POSTBOARD_EMAIL")
	}
	email = strings.TrimSpace(email)

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or POSTBOARD_EMAIL env var)")
	}

	password, err := resolvePassword(cmd, password)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signing in to %s...\n", a.config.APIURL)

	creds, err := a.client.SignIn(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Login navigates to the page that sent us here, or home
	err = a.session.Login(cmd.Context(), *creds)
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintln(a.out)
	success.Fprintln(a.out, "✓ Login successful!")
	printUser(a, &creds.User)
	return err
}

func printUser(a *app, user *session.User) {
	fmt.Fprintf(a.out, "  User: %s", user.Username)
	if user.Email != "" {
		fmt.Fprintf(a.out, " (%s)", user.Email)
	}
	fmt.Fprintln(a.out)

	if user.Role != nil {
		fmt.Fprintf(a.out, "  Role: %s [%s]\n", user.Role.Key, strings.Join(user.Role.Permissions, ","))
	}
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if err := a.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout incomplete: %w", err)
			}

			success.Fprintln(a.out, "✓ Signed out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			user := a.session.User()
			if user == nil {
				return errNotSignedIn
			}

			printUser(a, user)
			return nil
		},
	}
}
