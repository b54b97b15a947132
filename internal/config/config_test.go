package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.PushRetry)
	assert.Equal(t, 5*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, uint(3), cfg.ConflictRetries)
	assert.Zero(t, cfg.DiceSeed)
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HOTDICE_UNUSED=1\nPOLL_INTERVAL=500ms\nDICE_SEED=42\n"), 0o600))
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Cleanup(func() {
		os.Unsetenv("HOTDICE_UNUSED")
		os.Unsetenv("POLL_INTERVAL")
		os.Unsetenv("DICE_SEED")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, int64(42), cfg.DiceSeed)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("CONFIRM_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid"},
		{
			name: "no surface",
			mutate: func(c *Config) {
				c.DiscordToken = ""
				c.HTTPAddr = ""
			},
			wantErr: ErrNoSurface,
		},
		{name: "poll interval", mutate: func(c *Config) { c.PollInterval = 0 }},
		{name: "conflict retries", mutate: func(c *Config) { c.ConflictRetries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{HTTPAddr: ":8080", PollInterval: time.Second, ConfirmTimeout: time.Second, ConflictRetries: 3}
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := cfg.Validate()

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.mutate == nil:
				assert.NoError(t, err)
			default:
				assert.Error(t, err)
			}
		})
	}
}
