// Package config loads service configuration from a YAML file with
// environment-variable fallbacks.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration.
type Config struct {
	// HTTP listen port.
	Port int `yaml:"port"`

	// Store selects the session store backend: "memory" or "redis".
	Store string `yaml:"store"`

	// Redis connection settings, used when Store is "redis".
	Redis RedisConfig `yaml:"redis"`

	// SessionTTL is the session retention window, refreshed every turn.
	SessionTTL Duration `yaml:"session_ttl"`

	// HandoffGrace is how long a handed-off flow keeps answering with
	// the escalation notice before it is considered consumed.
	HandoffGrace Duration `yaml:"handoff_grace"`

	// SweepInterval is the cron spec for the expired-session sweep
	// (memory store only).
	SweepInterval string `yaml:"sweep_interval"`

	// ChatRatePerSecond caps accepted chat requests; ChatBurst is the
	// token bucket size.
	ChatRatePerSecond float64 `yaml:"chat_rate_per_second"`
	ChatBurst         int     `yaml:"chat_burst"`

	// Ticket destination for handoff payload previews.
	Ticket TicketConfig `yaml:"ticket"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	PoolSize int    `yaml:"pool_size"`
}

// TicketConfig identifies the ticketing destination.
type TicketConfig struct {
	ProjectKey    string              `yaml:"project_key"`
	IssueType     string              `yaml:"issue_type"`
	DefaultLabels []string            `yaml:"default_labels"`
	LabelMap      map[string][]string `yaml:"label_map"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:              8080,
		Store:             "memory",
		SessionTTL:        Duration(30 * time.Minute),
		HandoffGrace:      Duration(5 * time.Minute),
		SweepInterval:     "@every 1m",
		ChatRatePerSecond: 20,
		ChatBurst:         40,
		Ticket: TicketConfig{
			ProjectKey: "IT",
			IssueType:  "Incident",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file, applies defaults, and picks
// up environment overrides for deployment-specific values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Environment overrides for the values that differ per deployment.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if store := os.Getenv("SESSION_STORE"); store != "" {
		cfg.Store = store
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis store selected but redis.addr is empty")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory or redis)", c.Store)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}
