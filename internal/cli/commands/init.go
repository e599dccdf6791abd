package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postboard-dev/postboard/internal/cli/config"
	"github.com/postboard-dev/postboard/internal/cli/storage"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var apiURL, apiVersion, backend string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, apiURL, apiVersion, backend)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default "+config.DefaultAPIURL+")")
	cmd.Flags().StringVar(&apiVersion, "api-version", "", "API version prefix (default v1)")
	cmd.Flags().StringVar(&backend, "storage", "", "Where the session is kept: keyring or file")

	return cmd
}

func runInit(cmd *cobra.Command, apiURL, apiVersion, backend string) error {
	out := cmd.OutOrStdout()

	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	// Start from the existing file so init can update a single field
	cfg := config.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		existing, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		cfg = existing
		fmt.Fprintf(out, "Found existing %s\n", configPath)
	}

	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	if backend != "" {
		switch backend {
		case storage.BackendKeyring, storage.BackendFile:
			cfg.Storage = backend
		default:
			return fmt.Errorf("unknown storage backend %q (use keyring or file)", backend)
		}
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	success.Fprintf(out, "✓ Wrote %s\n", configPath)
	fmt.Fprintf(out, "  API:     %s (%s)\n", cfg.APIURL, cfg.APIVersion)
	fmt.Fprintf(out, "  Storage: %s\n", cfg.Storage)

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'postboard sign-up' to create an account")
	fmt.Fprintln(out, "  2. Run 'postboard login' to authenticate")

	return nil
}
