package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string `env:"APP_ENV" envDefault:"dev"`
	Port           string `env:"PORT" envDefault:"8080"`
	DBPath         string `env:"DB_PATH" envDefault:"./dev.db"`
	PriceTablePath string `env:"PRICE_TABLE_PATH"`
	AdminEmail     string `env:"ADMIN_EMAIL"`
	AdminPassword  string `env:"ADMIN_PASSWORD"`
	SessionSecret  string `env:"SESSION_SECRET"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	TimeZone       string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the process runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Location resolves the configured time zone used for completion dates.
// Hosts without tzdata get a fixed JST offset.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Validate reports settings that must be present outside local development.
func (c Config) Validate() error {
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when APP_ENV=%s", c.Env)
	}
	return nil
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var warnings []string
	if c.AdminEmail == "" {
		warnings = append(warnings, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}
	return warnings
}
