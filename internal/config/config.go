// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"auth-service/internal/security"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :5501).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC health server listens on (e.g. :5502).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded RSA private key or path to file; signs access tokens (RS256).
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded RSA public key or path to file; verifies access tokens and is published as JWKS.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// RefreshTokenSecret is the HMAC secret for refresh tokens (HS256).
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	// JWTIssuer is the iss claim of every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// CookieDomain is the Domain attribute of the session cookies.
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CookieSecure sets the Secure attribute of the session cookies.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// ClientURL is the browser origin allowed to call the API with credentials.
	ClientURL string `mapstructure:"CLIENT_URL"`

	// Admin bootstrap. Both email and password must be set for an admin to be created.
	AdminEmail     string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
	AdminFirstName string `mapstructure:"ADMIN_FIRST_NAME"`
	AdminLastName  string `mapstructure:"ADMIN_LAST_NAME"`

	// ScopePolicyPath is an optional Rego file replacing the built-in tenant-scope policy.
	ScopePolicyPath string `mapstructure:"SCOPE_POLICY_PATH"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// When empty, session events are not published to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SessionEventsTopic is the Kafka topic for session lifecycle events.
	SessionEventsTopic string `mapstructure:"SESSION_EVENTS_TOPIC"`

	// RefreshSweepInterval is how often the worker deletes expired refresh token records.
	RefreshSweepInterval time.Duration `mapstructure:"REFRESH_SWEEP_INTERVAL"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":5501")
	v.SetDefault("GRPC_ADDR", ":5502")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("JWT_ISSUER", "auth-service")
	v.SetDefault("BCRYPT_COST", security.DefaultBcryptCost)
	v.SetDefault("COOKIE_DOMAIN", "localhost")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CLIENT_URL", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_FIRST_NAME", "System")
	v.SetDefault("ADMIN_LAST_NAME", "Admin")
	v.SetDefault("SCOPE_POLICY_PATH", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SESSION_EVENTS_TOPIC", "auth-session-events")
	v.SetDefault("REFRESH_SWEEP_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = security.DefaultBcryptCost
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.RefreshSweepInterval <= 0 {
		return nil, errors.New("config: REFRESH_SWEEP_INTERVAL must be a positive duration")
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	if len(cfg.AdminPassword) > security.MaxPasswordBytes {
		return nil, errors.New("config: ADMIN_PASSWORD must be at most 72 bytes")
	}

	if cfg.Env == "production" && !cfg.CookieSecure {
		return nil, errors.New("config: COOKIE_SECURE must be true when APP_ENV=production")
	}

	return &cfg, nil
}

// KeyMaterial parses the configured keys and refresh secret. Unset values stay unset;
// call Validate on the result to require all of them.
func (c *Config) KeyMaterial() (*security.KeyMaterial, error) {
	keys, err := security.LoadKeyMaterial(c.JWTPrivateKey, c.JWTPublicKey, c.RefreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return keys, nil
}

// ScopePolicy returns the Rego source at ScopePolicyPath, or "" to use the built-in policy.
func (c *Config) ScopePolicy() (string, error) {
	if c.ScopePolicyPath == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.ScopePolicyPath)
	if err != nil {
		return "", fmt.Errorf("config: read SCOPE_POLICY_PATH: %w", err)
	}
	return string(b), nil
}

// SlogLevel returns LogLevel as a slog.Level. Load has already rejected unknown levels.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return l, nil
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
