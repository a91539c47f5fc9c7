// Package config loads the application configuration from YAML.
// Strategy parameters default to the stock set; file values override
// field by field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meme-sniper/internal/domain"
	"meme-sniper/internal/gateway"
)

// Config is the full application configuration.
type Config struct {
	Strategy domain.StrategyParameters `yaml:"strategy"`
	Feed     FeedConfig                `yaml:"feed"`
	Storage  StorageConfig             `yaml:"storage"`
	Gateway  GatewayConfig             `yaml:"gateway"`
	Metrics  MetricsConfig             `yaml:"metrics"`
}

// FeedConfig configures the market event feed.
type FeedConfig struct {
	Endpoint string `yaml:"endpoint"`
	// EventLogPath, when set, appends every accepted event to a JSONL
	// capture for later replay.
	EventLogPath string `yaml:"event_log_path"`
}

// StorageConfig selects the persistence backends. Empty DSNs fall back
// to in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// GatewayConfig configures live order execution.
type GatewayConfig struct {
	RPS             float64         `yaml:"rps"`
	Burst           int             `yaml:"burst"`
	BreakerFailures uint32          `yaml:"breaker_failures"`
	BreakerCooldown domain.Duration `yaml:"breaker_cooldown"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9091", empty disables the endpoint
}

// Default returns the stock configuration.
func Default() Config {
	rpc := gateway.DefaultRPCGatewayConfig()
	return Config{
		Strategy: domain.DefaultParameters(),
		Gateway: GatewayConfig{
			RPS:             rpc.RPS,
			Burst:           rpc.Burst,
			BreakerFailures: rpc.BreakerFailures,
			BreakerCooldown: domain.Duration(rpc.BreakerCooldown),
		},
		Metrics: MetricsConfig{Addr: ":9091"},
	}
}

// Load reads path into the default configuration and validates the
// result. An empty path returns validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigInvalid, path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the whole configuration. Any violation is fatal at
// startup; parameters are never re-validated at runtime.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if c.Gateway.RPS <= 0 {
		return fmt.Errorf("%w: gateway rps must be positive, got %v",
			domain.ErrConfigInvalid, c.Gateway.RPS)
	}
	if c.Gateway.Burst <= 0 {
		return fmt.Errorf("%w: gateway burst must be positive, got %d",
			domain.ErrConfigInvalid, c.Gateway.Burst)
	}
	if c.Gateway.BreakerCooldown <= 0 {
		return fmt.Errorf("%w: gateway breaker_cooldown must be positive, got %v",
			domain.ErrConfigInvalid, c.Gateway.BreakerCooldown)
	}
	return nil
}

// RPCGatewayConfig converts the gateway section for the live gateway.
func (c *Config) RPCGatewayConfig() gateway.RPCGatewayConfig {
	cfg := gateway.DefaultRPCGatewayConfig()
	cfg.Timeout = c.Strategy.OrderTimeout.Std()
	cfg.RPS = c.Gateway.RPS
	cfg.Burst = c.Gateway.Burst
	cfg.BreakerFailures = c.Gateway.BreakerFailures
	cfg.BreakerCooldown = c.Gateway.BreakerCooldown.Std()
	return cfg
}
