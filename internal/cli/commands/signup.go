package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/cli/client"
	"github.com/postboard-dev/postboard/internal/cli/pages"
	"github.com/postboard-dev/postboard/internal/cli/prompt"
	"github.com/postboard-dev/postboard/internal/session"
)

// NewSignUpCmd creates the sign-up command
func NewSignUpCmd() *cobra.Command {
	var req client.SignUpRequest

	cmd := &cobra.Command{
		Use:   "sign-up",
		Short: "Create a postboard account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username (at least 4 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (or set POSTBOARD_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&req.Role, "role", "", "Role key, e.g. READER or CREATOR (will prompt if not provided)")

	return cmd
}

func runSignUp(cmd *cobra.Command, req client.SignUpRequest) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	// Signed-in users have nothing to do here
	if a.session.IsAuthenticated() {
		fmt.Fprintf(a.out, "Already signed in as %s\n\n", a.session.User().Username)
		return a.pages.Navigate(cmd.Context(), session.PathHome)
	}

	if req.Username == "" || req.Email == "" {
		if err := a.pages.Navigate(cmd.Context(), pages.PathSignUp); err != nil {
			return err
		}
		return fmt.Errorf("--username and --email are required")
	}

	if req.Password == "" {
		req.Password = os.Getenv("POSTBOARD_PASSWORD")
	}
	if req.Password == "" {
		if req.Password, err = resolvePassword(cmd, ""); err != nil {
			return err
		}
		confirm, err := prompt.Password(cmd.ErrOrStderr(), "Confirm password")
		if err != nil {
			return err
		}
		req.ConfirmPassword = confirm
	} else {
		req.ConfirmPassword = req.Password
	}

	if req.Role == "" {
		role, err := selectRole(cmd, a)
		if err != nil {
			return err
		}
		req.Role = role
	}

	user, err := a.client.SignUp(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("sign-up failed: %w", err)
	}

	name := req.Username
	if user != nil {
		name = user.Username
	}
	success.Fprintf(a.out, "✓ Account %s created\n\n", name)

	return a.pages.Navigate(cmd.Context(), session.PathSignIn)
}

func selectRole(cmd *cobra.Command, a *app) (string, error) {
	roles, err := a.client.ListRoles(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("failed to load roles: %w", err)
	}

	options := make([]prompt.Option, len(roles))
	for i, role := range roles {
		options[i] = prompt.Option{Label: fmt.Sprintf("%s (%s)", role.Name, role.Key), Value: role.Key}
	}

	role, err := prompt.Select("Select a role", options)
	if errors.Is(err, prompt.ErrNotInteractive) {
		return "", fmt.Errorf("role is required in non-interactive mode (use --role flag)")
	}
	return role, err
}
