package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment (and .env).
// Match parameters live in the match document, see LoadMatch.
type Config struct {
	// Match document
	GameConfigPath       string `env:"REFEREE_GAME_CONFIG"`
	LegacyGameConfigPath string `env:"WEBOTS_ROBOCUP_GAME"`

	// Controller link
	ConnectRetries    int           `env:"GC_CONNECT_RETRIES" envDefault:"10"`
	ConnectRetryDelay time.Duration `env:"GC_CONNECT_RETRY_DELAY" envDefault:"1s"`
	AckTimeout        time.Duration `env:"GC_ACK_TIMEOUT" envDefault:"30s"`
	LatchTimeout      time.Duration `env:"GC_LATCH_TIMEOUT" envDefault:"30s"`

	// History
	HistoryEnabled bool   `env:"HISTORY_ENABLED" envDefault:"true"`
	HistoryDBPath  string `env:"HISTORY_DB_PATH" envDefault:"data/match_history.db"`

	// Live board
	FanoutEnabled bool `env:"FANOUT_ENABLED" envDefault:"true"`
	FanoutPort    int  `env:"FANOUT_PORT" envDefault:"9100"`

	// Telemetry
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"LOG_FILE" envDefault:"log.txt"`
	OTelEndpoint string `env:"REFEREE_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"REFEREE_OTEL_ENABLED" envDefault:"true"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	cfg.GameConfigPath = cfg.resolveGameConfigPath()
	return cfg, nil
}

// ParseEnv fills target from environment variables using its env tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) resolveGameConfigPath() string {
	if c.GameConfigPath != "" {
		return c.GameConfigPath
	}
	if c.LegacyGameConfigPath != "" {
		return c.LegacyGameConfigPath
	}
	wd, err := os.Getwd()
	if err != nil {
		return "game.yaml"
	}
	return filepath.Join(wd, "game.yaml")
}
