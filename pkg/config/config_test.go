package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, 60*time.Second, cfg.Media.TranscodeTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Media.CaptureRetention)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Address)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  address: ":8443"
media:
  transcode_timeout: 90s
  output_dir: /var/lib/courtstream/recordings
redis:
  enabled: true
  address: redis:6379
  pool_size: 20
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.Server.Address)
	assert.Equal(t, 90*time.Second, cfg.Media.TranscodeTimeout)
	assert.Equal(t, "/var/lib/courtstream/recordings", cfg.Media.OutputDir)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)

	// Untouched sections keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Signal.PingInterval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COURTSTREAM_SERVER_ADDRESS", ":9000")
	t.Setenv("COURTSTREAM_LOG_LEVEL", "debug")
	t.Setenv("COURTSTREAM_OUTPUT_DIR", "/srv/recordings")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/recordings", cfg.Media.OutputDir)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero ping interval", func(c *Config) { c.Signal.PingInterval = 0 }},
		{"empty ffmpeg path", func(c *Config) { c.Media.FFmpegPath = "" }},
		{"zero transcode timeout", func(c *Config) { c.Media.TranscodeTimeout = 0 }},
		{"zero retention", func(c *Config) { c.Media.CaptureRetention = 0 }},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.JWTSecret = "" }},
		{"tracing bad sample rate", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.SampleRate = 2 }},
		{"rate limiting zero burst", func(c *Config) { c.RateLimiting.Enabled = true; c.RateLimiting.HTTP.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
