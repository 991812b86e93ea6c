package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all exchange subsystem configuration.
type Config struct {
	Exchange ExchangeConfig
	Logging  LogConfig
	Ops      OpsConfig
	Bench    BenchConfig
}

// ExchangeConfig holds broadcast channel configuration.
type ExchangeConfig struct {
	QueueCapacity int           `envconfig:"EXCHANGE_QUEUE_CAPACITY" default:"64"`
	MaxWait       time.Duration `envconfig:"EXCHANGE_MAX_WAIT" default:"10s"`
	EnableMetrics bool          `envconfig:"EXCHANGE_METRICS" default:"true"`
	RegisterWait  time.Duration `envconfig:"EXCHANGE_REGISTER_WAIT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// OpsConfig holds the operational HTTP endpoint configuration.
type OpsConfig struct {
	Addr    string `envconfig:"OPS_ADDR" default:":9090"`
	Enabled bool   `envconfig:"OPS_ENABLED" default:"true"`
}

// BenchConfig holds knobs for the exchange-bench tool.
type BenchConfig struct {
	Chunks     int `envconfig:"BENCH_CHUNKS" default:"10000"`
	ChunkBytes int `envconfig:"BENCH_CHUNK_BYTES" default:"4096"`
	ChunkRows  int `envconfig:"BENCH_CHUNK_ROWS" default:"128"`
	Rate       int `envconfig:"BENCH_RATE" default:"0"` // chunks/sec, 0 = unlimited
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			QueueCapacity: 64,
			MaxWait:       10 * time.Second,
			EnableMetrics: true,
			RegisterWait:  30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Ops: OpsConfig{
			Addr:    ":9090",
			Enabled: true,
		},
		Bench: BenchConfig{
			Chunks:     10000,
			ChunkBytes: 4096,
			ChunkRows:  128,
			Rate:       0,
		},
	}
}
