// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"webstarter/backend/internal/whitelist"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// minAuthSecretLen is the minimum AUTH_SECRET length accepted when a secret is set.
const minAuthSecretLen = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN. Required by the server, migrate, seed, and teardown commands.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AuthSecret is the HMAC key for session tokens; at least 32 characters.
	AuthSecret string `mapstructure:"AUTH_SECRET"`
	// BaseURL is the public origin of the app (e.g. https://app.example.com). Always allowed by CORS.
	BaseURL string `mapstructure:"BASE_URL"`
	// Env is the application environment: development, production, or test.
	Env string `mapstructure:"APP_ENV"`
	// SessionTTLRaw is the session lifetime (e.g. "168h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// SessionSweepIntervalRaw is how often expired sessions are deleted (e.g. "1h"); "0" disables the sweeper.
	SessionSweepIntervalRaw string `mapstructure:"SESSION_SWEEP_INTERVAL"`
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName string `mapstructure:"SESSION_COOKIE_NAME"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// SignupWhitelistEnabledRaw enables the signup whitelist only when exactly "true".
	SignupWhitelistEnabledRaw string `mapstructure:"ENABLE_SIGNUP_WHITELIST"`
	// SignupWhitelist is a comma-separated list of emails and @domain patterns.
	SignupWhitelist string `mapstructure:"SIGNUP_WHITELIST"`

	// RedisURL enables the session cache when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// OTLPEndpoint is the OTLP gRPC collector for traces; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// CORSAllowedOrigins is a comma-separated list of extra origins allowed by CORS.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("SESSION_TTL", "168h") // 7d
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1h")
	v.SetDefault("SESSION_COOKIE_NAME", "session_token")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ENABLE_SIGNUP_WHITELIST", "false")
	v.SetDefault("SIGNUP_WHITELIST", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	case "":
		cfg.Env = EnvDevelopment
	default:
		return nil, fmt.Errorf("config: APP_ENV must be one of development, production, test; got %q", cfg.Env)
	}

	if cfg.DatabaseURL != "" {
		if err := validateURL(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("config: DATABASE_URL: %w", err)
		}
	}
	if err := validateURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("config: BASE_URL: %w", err)
	}

	if cfg.AuthSecret != "" && len(cfg.AuthSecret) < minAuthSecretLen {
		return nil, fmt.Errorf("config: AUTH_SECRET must be at least %d characters", minAuthSecretLen)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "session_token"
	}

	return &cfg, nil
}

// RequireServer checks the fields only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if c.AuthSecret == "" {
		return errors.New("config: AUTH_SECRET must be set")
	}
	return nil
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SessionSweepInterval parses SessionSweepIntervalRaw. Returns 1h if unset or invalid and 0 when
// explicitly disabled with "0".
func (c *Config) SessionSweepInterval() time.Duration {
	if strings.TrimSpace(c.SessionSweepIntervalRaw) == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.SessionSweepIntervalRaw)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SignupWhitelistEnabled is true only when ENABLE_SIGNUP_WHITELIST is the literal "true".
func (c *Config) SignupWhitelistEnabled() bool {
	return c.SignupWhitelistEnabledRaw == "true"
}

// Whitelist returns the signup whitelist configuration.
func (c *Config) Whitelist() whitelist.Config {
	return whitelist.NewConfig(c.SignupWhitelistEnabled(), c.SignupWhitelist)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SecureCookies reports whether session cookies should carry the Secure flag (https BASE_URL).
func (c *Config) SecureCookies() bool {
	u, err := url.Parse(c.BaseURL)
	return err == nil && u.Scheme == "https"
}

// CORSOrigins returns BASE_URL's origin followed by CORS_ALLOWED_ORIGINS, without blanks or duplicates.
func (c *Config) CORSOrigins() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
		add(u.Scheme + "://" + u.Host)
	}
	for _, p := range strings.Split(c.CORSAllowedOrigins, ",") {
		add(p)
	}
	return out
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", s)
	}
	return nil
}
