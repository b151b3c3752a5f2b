// Package config loads the server configuration from a YAML file and applies
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Prefix    string `yaml:"prefix"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Rule is one configured rate limit rule.
type Rule struct {
	Endpoint      string `yaml:"endpoint"`
	Method        string `yaml:"method"`
	MaxEvents     int64  `yaml:"max_events"`
	WindowSeconds int64  `yaml:"window_seconds"`
}

// APIKey maps a presented credential to a tenant and its subscription tier.
type APIKey struct {
	Key    string `yaml:"key"`
	Tenant string `yaml:"tenant"`
	Tier   string `yaml:"tier"`
}

// Tier overrides one entry of the tier default table.
type Tier struct {
	Name          string `yaml:"name"`
	MaxEvents     int64  `yaml:"max_events"`
	WindowSeconds int64  `yaml:"window_seconds"`
}

type Limits struct {
	// FailurePolicy is "open" (default) or "closed".
	FailurePolicy string `yaml:"failure_policy"`
	AuthHeader    string `yaml:"auth_header"`
	// AdminToken authenticates the rule invalidation endpoint. Leaving it
	// empty disables the endpoint.
	AdminToken string            `yaml:"admin_token"`
	Tiers      []Tier            `yaml:"tiers"`
	Keys       []APIKey          `yaml:"keys"`
	Rules      map[string][]Rule `yaml:"rules"` // tenant id -> rules
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Redis         Redis         `yaml:"redis"`
	Limits        Limits        `yaml:"limits"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (r Redis) Timeout() time.Duration {
	if r.TimeoutMS == 0 {
		return 2 * time.Second
	}
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "rate_limit:"
	}
	if cfg.Limits.FailurePolicy == "" {
		cfg.Limits.FailurePolicy = "open"
	}
	if cfg.Limits.FailurePolicy != "open" && cfg.Limits.FailurePolicy != "closed" {
		return nil, fmt.Errorf("limits.failure_policy must be \"open\" or \"closed\", got %q", cfg.Limits.FailurePolicy)
	}
	if cfg.Limits.AuthHeader == "" {
		cfg.Limits.AuthHeader = "X-API-Key"
	}

	return &cfg, nil
}
