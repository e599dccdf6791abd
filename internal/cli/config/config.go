package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const (
	configDirName  = "postboard"
	configFileName = "config.json"
	stateFileName  = "state.json"

	// DefaultAPIURL is used when neither the config file nor the environment name one
	DefaultAPIURL = "http://localhost:8080"
)

// Config represents the client configuration stored in ~/.config/postboard/config.json
type Config struct {
	APIURL     string `json:"api_url"`
	APIVersion string `json:"api_version,omitempty"`
	Storage    string `json:"storage,omitempty"` // keyring or file
}

// DefaultConfig returns the configuration used before `postboard init` runs
func DefaultConfig() *Config {
	return &Config{
		APIURL:     DefaultAPIURL,
		APIVersion: "v1",
		Storage:    "keyring",
	}
}

// Dir returns the client configuration directory. POSTBOARD_CONFIG_DIR
// overrides the default ~/.config/postboard.
func Dir() (string, error) {
	if dir := os.Getenv("POSTBOARD_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetStatePath returns the path the file storage backend writes to
func GetStatePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}

// Load reads the config file and applies environment overrides
// (POSTBOARD_API_URL, POSTBOARD_API_VERSION, POSTBOARD_STORAGE)
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// If config doesn't exist, keep the defaults
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("POSTBOARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("POSTBOARD_API_VERSION"); v != "" {
		cfg.APIVersion = v
	}
	if v := os.Getenv("POSTBOARD_STORAGE"); v != "" {
		cfg.Storage = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the config file
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the API URL is absolute
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api_url %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api_url %q: missing host", c.APIURL)
	}
	return nil
}

// Scope returns the API host, used to keep sessions against different
// servers apart in the keychain
func (c *Config) Scope() string {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" {
		return c.APIURL
	}
	return u.Host
}
