package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	DatabaseType   string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabasePath   string `env:"DB_PATH" envDefault:"./kowaiquest.db"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"kowaiquest"`

	SessionFile string `env:"SESSION_FILE"`
	CatalogPath string `env:"CATALOG_PATH"`

	LogMode          string `env:"LOG_MODE" envDefault:"dev"`
	Telemetry        string `env:"TELEMETRY" envDefault:"log"`
	TelemetryChannel string `env:"TELEMETRY_CHANNEL" envDefault:"kowaiquest.events"`

	// StrictProgression applies the watermark+1 rule to every quest completion.
	StrictProgression bool `env:"STRICT_PROGRESSION" envDefault:"false"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}
	return cfg, nil
}

// defaultSessionFile places the device-local session list in the user's home directory
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".kowaiquest", "sessions.json")
	}
	return filepath.Join(home, ".kowaiquest", "sessions.json")
}
