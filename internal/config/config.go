// Package config manages oja credentials and connection settings.
//
// Settings live in an env file (default: ~/.oja/env) holding the journal's
// base URL, the REST API token, and the web login credentials. Values set in
// the process environment take precedence over the file, so one-off runs can
// override a saved setting without editing it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names, both in the env file and in the process
// environment.
const (
	EnvBaseURL  = "OJS_BASE_URL"
	EnvAPIToken = "OJS_API_TOKEN"
	EnvUsername = "OJS_USERNAME"
	EnvPassword = "OJS_PASSWORD"

	// EnvFile overrides where the settings file is read from and written to.
	EnvFile = "OJA_ENV_FILE"
)

// Config holds everything needed to talk to the journal platform.
type Config struct {
	// BaseURL is the journal's root URL, without a trailing slash.
	BaseURL string

	// APIToken authenticates REST API calls.
	APIToken string

	// Username and Password authenticate the web session used for
	// operations the REST API does not cover.
	Username string
	Password string
}

// Path returns the settings file location: $OJA_ENV_FILE if set, otherwise
// ~/.oja/env.
func Path() (string, error) {
	if p := os.Getenv(EnvFile); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".oja", "env"), nil
}

// Load reads the settings file and applies process-environment overrides.
// A missing file is not an error; the result may be incomplete and should
// be checked with Validate before use.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if _, statErr := os.Stat(path); statErr == nil {
		values, err = godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	get := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return values[key]
	}

	return &Config{
		BaseURL:  strings.TrimRight(get(EnvBaseURL), "/"),
		APIToken: get(EnvAPIToken),
		Username: get(EnvUsername),
		Password: get(EnvPassword),
	}, nil
}

// Save writes the settings file, creating its directory if needed. The file
// is written with owner-only permissions since it holds credentials.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	values := map[string]string{
		EnvBaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		EnvAPIToken: cfg.APIToken,
		EnvUsername: cfg.Username,
		EnvPassword: cfg.Password,
	}
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%s is not set", EnvBaseURL)
	case c.APIToken == "":
		return fmt.Errorf("%s is not set", EnvAPIToken)
	case c.Username == "":
		return fmt.Errorf("%s is not set", EnvUsername)
	case c.Password == "":
		return fmt.Errorf("%s is not set", EnvPassword)
	}
	return nil
}
