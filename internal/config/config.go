package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Base URLs for the platform API. Development runs against a local proxy,
// production talks to the fixed origin directly.
const (
	DevBaseURL        = "http://localhost:3000/api"
	ProductionBaseURL = "https://app.boldtribe.in/api"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Env            string `env:"APP_ENV" envDefault:"production"`
	Addr           string `env:"ADDR" envDefault:":8080"`
	DBPath         string `env:"DB_PATH" envDefault:"kids-admin.sqlite3"`
	LogPath        string `env:"LOG_PATH"`
	APIBaseURL     string `env:"API_BASE_URL"`
	APIFallbackURL string `env:"API_FALLBACK_URL" envDefault:"https://app.boldtribe.in/api"`
	TLSDomain      string `env:"TLS_DOMAIN"`
	TLSCacheDir    string `env:"TLS_CACHE_DIR" envDefault:".autocert"`
}

// Load parses configuration from environment variables and resolves the
// API base URL for the selected environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.APIBaseURL == "" {
		if cfg.Development() {
			cfg.APIBaseURL = DevBaseURL
		} else {
			cfg.APIBaseURL = ProductionBaseURL
		}
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.APIFallbackURL = strings.TrimRight(cfg.APIFallbackURL, "/")

	// A fallback identical to the primary is no fallback at all.
	if cfg.APIFallbackURL == cfg.APIBaseURL {
		cfg.APIFallbackURL = ""
	}

	return cfg, nil
}

// Development reports whether the panel runs in development mode.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}
