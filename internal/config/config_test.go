package config

import (
	"os"
	"path/filepath"
	"testing"
)

func useTempEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env")
	t.Setenv(EnvFile, path)
	for _, key := range []string{EnvBaseURL, EnvAPIToken, EnvUsername, EnvPassword} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	useTempEnvFile(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "" || cfg.APIToken != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("empty config must not validate")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := useTempEnvFile(t)

	in := &Config{
		BaseURL:  "https://journal.example.org/",
		APIToken: "token123",
		Username: "editor",
		Password: "hunter2",
	}
	if err := Save(in); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("settings file mode = %v, want 0600", info.Mode().Perm())
	}

	out, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if out.BaseURL != "https://journal.example.org" {
		t.Errorf("base URL = %q, want trailing slash stripped", out.BaseURL)
	}
	if out.APIToken != in.APIToken || out.Username != in.Username || out.Password != in.Password {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if err := out.Validate(); err != nil {
		t.Errorf("saved config must validate: %v", err)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	useTempEnvFile(t)

	if err := Save(&Config{
		BaseURL:  "https://journal.example.org",
		APIToken: "from-file",
		Username: "editor",
		Password: "hunter2",
	}); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIToken, "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIToken != "from-env" {
		t.Errorf("token = %q, want the environment value", cfg.APIToken)
	}
	if cfg.Username != "editor" {
		t.Errorf("username = %q, want the file value", cfg.Username)
	}
}
