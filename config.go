package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const defaultConfigFile = "console.yaml"

type Config struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	DBPath          string        `yaml:"db_path" env:"DB_PATH"`
	APIURL          string        `yaml:"api_url" env:"API_URL"`
	APITimeout      time.Duration `yaml:"api_timeout" env:"API_TIMEOUT"`
	DisplayTimezone string        `yaml:"display_timezone" env:"DISPLAY_TIMEZONE"`
	SecureCookies   bool          `yaml:"secure_cookies" env:"SECURE_COOKIES"`
	SeedDemoPosts   bool          `yaml:"seed_demo_posts" env:"SEED_DEMO_POSTS"`

	// Secrets are only read from the environment.
	AdminPassword string `yaml:"-" env:"ADMIN_PASSWORD"`
	SessionKey    string `yaml:"-" env:"SESSION_KEY"`
}

func defaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		DBPath:          "console.db",
		APITimeout:      10 * time.Second,
		DisplayTimezone: "Local",
	}
}

// loadConfig layers the YAML file at path over the defaults, then the
// environment over both. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the zone publish times are displayed and entered in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading display timezone %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}
