// Package config loads the library configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// HandlerConfig holds per-handler lifecycle settings.
type HandlerConfig struct {
	// TimeoutSeconds is how long a handler stays alive after its last
	// trigger; 0 -> default (30s).
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"CORDIAL_HANDLER_TIMEOUT_SECONDS"`
	// SweepIntervalSeconds drives the registry expiry sweep; 0 -> default (5s).
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"CORDIAL_SWEEP_INTERVAL_SECONDS"`
}

// BackoffConfig tunes the retry-delay sequence used for outbound calls.
type BackoffConfig struct {
	BaseMS     int `yaml:"base_ms" envconfig:"CORDIAL_BACKOFF_BASE_MS"`
	MaxDelayMS int `yaml:"max_delay_ms" envconfig:"CORDIAL_BACKOFF_MAX_DELAY_MS"`
	MaxRetries int `yaml:"max_retries" envconfig:"CORDIAL_BACKOFF_MAX_RETRIES"`
}

// ReactionConfig holds reaction-registry specific settings.
type ReactionConfig struct {
	// Blacklist lists user ids whose reactions are always ignored. The bot's
	// own id belongs here.
	Blacklist []string `yaml:"blacklist" envconfig:"CORDIAL_REACTION_BLACKLIST"`
	// RemoveReactionsOnClose removes paginator reaction markers when a
	// handler closes.
	RemoveReactionsOnClose bool `yaml:"remove_reactions_on_close" envconfig:"CORDIAL_REMOVE_REACTIONS_ON_CLOSE"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"CORDIAL_LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"CORDIAL_LOG_FORMAT"`
}

// Config aggregates the configuration of the dispatch clients.
type Config struct {
	Handler  HandlerConfig  `yaml:"handler"`
	Backoff  BackoffConfig  `yaml:"backoff"`
	Reaction ReactionConfig `yaml:"reaction"`
	Logging  LoggingConfig  `yaml:"logging"`
}

const (
	defaultTimeout       = 30 * time.Second
	defaultSweepInterval = 5 * time.Second
)

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a configuration from environment variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.Handler.TimeoutSeconds < 0 {
		return fmt.Errorf("handler.timeout_seconds must not be negative")
	}
	if cfg.Handler.SweepIntervalSeconds < 0 {
		return fmt.Errorf("handler.sweep_interval_seconds must not be negative")
	}
	if cfg.Backoff.BaseMS < 0 || cfg.Backoff.MaxDelayMS < 0 || cfg.Backoff.MaxRetries < 0 {
		return fmt.Errorf("backoff values must not be negative")
	}
	if cfg.Backoff.BaseMS > 0 && cfg.Backoff.MaxDelayMS > 0 && cfg.Backoff.BaseMS > cfg.Backoff.MaxDelayMS {
		return fmt.Errorf("backoff.base_ms exceeds backoff.max_delay_ms")
	}
	return nil
}

// Timeout returns the handler expiry timeout with the default applied.
func (c HandlerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SweepInterval returns the registry sweep period with the default applied.
func (c HandlerConfig) SweepInterval() time.Duration {
	if c.SweepIntervalSeconds <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Base returns the first retry delay, zero when unset.
func (c BackoffConfig) Base() time.Duration {
	return time.Duration(c.BaseMS) * time.Millisecond
}

// MaxDelay returns the delay ceiling, zero when unset.
func (c BackoffConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}
