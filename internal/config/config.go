// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // subject cache TTL
}

type AuthConfig struct {
	SessionSecret string        `yaml:"session_secret"`
	CookieName    string        `yaml:"cookie_name"`
	CookieDomain  string        `yaml:"cookie_domain"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// RoutesConfig names the navigation destinations used by the access gate and
// the commit flow.
type RoutesConfig struct {
	Login   string `yaml:"login"`
	Upgrade string `yaml:"upgrade"`
	Home    string `yaml:"home"`
}

type SubscriptionConfig struct {
	CommitTimeout time.Duration `yaml:"commit_timeout"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	RateLimit     int           `yaml:"rate_limit"` // commits per subject per window, 0 disables
	RateWindow    time.Duration `yaml:"rate_window"`
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Auth         AuthConfig         `yaml:"auth"`
	Routes       RoutesConfig       `yaml:"routes"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	envDatabaseURL   = "DATABASE_URL"
	envRedisURL      = "REDIS_URL"
	envSessionSecret = "SESSION_SECRET"
	envServerAddr    = "PORTAL_ADDR"
)

// LoadConfig reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error when
// the environment supplies everything required.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv(envSessionSecret); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv(envServerAddr); v != "" {
		cfg.Server.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL, 5*time.Minute)
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	cfg.Auth.SessionTTL = normalizeTTL(cfg.Auth.SessionTTL, 24*time.Hour)
	if cfg.Routes.Login == "" {
		cfg.Routes.Login = "/login"
	}
	if cfg.Routes.Upgrade == "" {
		cfg.Routes.Upgrade = "/subscription"
	}
	if cfg.Routes.Home == "" {
		cfg.Routes.Home = "/dashboard"
	}
	cfg.Subscription.CommitTimeout = normalizeTTL(cfg.Subscription.CommitTimeout, 10*time.Second)
	cfg.Subscription.LockTTL = normalizeTTL(cfg.Subscription.LockTTL, 30*time.Second)
	cfg.Subscription.RateWindow = normalizeTTL(cfg.Subscription.RateWindow, time.Minute)
	if cfg.Subscription.RateLimit < 0 {
		cfg.Subscription.RateLimit = 0
	}
	cfg.Scheduler.ExpiryInterval = normalizeTTL(cfg.Scheduler.ExpiryInterval, time.Hour)
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return errors.New("auth.session_secret must be at least 32 bytes")
	}
	if c.Server.RequestTimeout <= c.Subscription.CommitTimeout {
		return fmt.Errorf("server.request_timeout (%s) must be longer than subscription.commit_timeout (%s)",
			c.Server.RequestTimeout, c.Subscription.CommitTimeout)
	}
	return nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
