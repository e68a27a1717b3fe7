package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("expected addr ':8080', got %q", cfg.Addr)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.APITimeout)
	}
	if cfg.APIURL != "" {
		t.Errorf("expected no API URL, got %q", cfg.APIURL)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
db_path: /tmp/console-test.db
api_url: https://api.example.test
api_timeout: 3s
display_timezone: UTC
seed_demo_posts: true
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("expected addr ':9090', got %q", cfg.Addr)
	}
	if cfg.DBPath != "/tmp/console-test.db" {
		t.Errorf("expected db path from file, got %q", cfg.DBPath)
	}
	if cfg.APIURL != "https://api.example.test" {
		t.Errorf("expected API URL from file, got %q", cfg.APIURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.APITimeout)
	}
	if !cfg.SeedDemoPosts {
		t.Error("expected seed_demo_posts from file")
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
api_timeout: 3s
`)
	t.Setenv("ADDR", ":7070")
	t.Setenv("API_TIMEOUT", "750ms")
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("expected addr from env, got %q", cfg.Addr)
	}
	if cfg.APITimeout != 750*time.Millisecond {
		t.Errorf("expected timeout from env, got %v", cfg.APITimeout)
	}
	if cfg.AdminPassword != "from-env" {
		t.Errorf("expected admin password from env, got %q", cfg.AdminPassword)
	}
	if !cfg.SecureCookies {
		t.Error("expected secure cookies from env")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"invalid yaml", "addr: [unclosed"},
		{"unknown timezone", "display_timezone: Mars/Olympus_Mons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tt.contents)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
