package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNoSurface is returned when neither the Discord bot nor the HTTP API is
// configured
var ErrNoSurface = errors.New("DISCORD_TOKEN or HTTP_ADDR must be set")

// Config is the process configuration read from the environment
type Config struct {
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Discord is disabled when the token is empty
	DiscordToken  string `env:"DISCORD_TOKEN"`
	ApplicationID string `env:"APPLICATION_ID"`

	// GuildID registers commands in one guild, for development
	GuildID string `env:"GUILD_ID"`

	// HTTPAddr is disabled when empty
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	PushRetry       time.Duration `env:"PUSH_RETRY" envDefault:"30s"`
	ConfirmTimeout  time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"5s"`
	ConflictRetries uint          `env:"CONFLICT_RETRIES" envDefault:"3"`

	// DiceSeed fixes the roller's seed; zero seeds from the clock
	DiceSeed int64 `env:"DICE_SEED"`
}

// Load reads a .env file when present, then parses the environment. Values
// already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the tags cannot express
func (c *Config) Validate() error {
	if c.DiscordToken == "" && c.HTTPAddr == "" {
		return ErrNoSurface
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("CONFIRM_TIMEOUT must be positive, got %s", c.ConfirmTimeout)
	}
	if c.ConflictRetries == 0 {
		return errors.New("CONFLICT_RETRIES must be at least 1")
	}
	return nil
}
