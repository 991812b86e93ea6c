package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Exchange config
	assert.Equal(t, 64, cfg.Exchange.QueueCapacity)
	assert.Equal(t, 10*time.Second, cfg.Exchange.MaxWait)
	assert.True(t, cfg.Exchange.EnableMetrics)
	assert.Equal(t, 30*time.Second, cfg.Exchange.RegisterWait)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Ops config
	assert.Equal(t, ":9090", cfg.Ops.Addr)
	assert.True(t, cfg.Ops.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, 64, cfg.Exchange.QueueCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"EXCHANGE_QUEUE_CAPACITY": "128",
		"EXCHANGE_MAX_WAIT":       "5s",
		"EXCHANGE_METRICS":        "false",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"OPS_ADDR":                ":7070",
		"BENCH_CHUNKS":            "42",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Exchange.QueueCapacity)
	assert.Equal(t, 5*time.Second, cfg.Exchange.MaxWait)
	assert.False(t, cfg.Exchange.EnableMetrics)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, ":7070", cfg.Ops.Addr)
	assert.Equal(t, 42, cfg.Bench.Chunks)
}
