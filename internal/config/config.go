// Package config loads and validates console config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds console configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the console HTTP API listens on (e.g. :8081).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :9090). Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// AuthAPIBaseURL is the base URL of the remote authentication API (signup, verify_email, update_widget).
	AuthAPIBaseURL string `mapstructure:"AUTH_API_BASE_URL"`
	// AuthAPITimeout bounds each call to the auth API (e.g. "10s"). "0s" or empty means no timeout.
	AuthAPITimeout string `mapstructure:"AUTH_API_TIMEOUT"`

	// Fixed fields of the signup payload. They are part of the auth API contract, not user input.
	SignupFullName string `mapstructure:"SIGNUP_FULL_NAME"`
	SignupIsPool   bool   `mapstructure:"SIGNUP_IS_POOL"`
	SignupLink     bool   `mapstructure:"SIGNUP_LINK"`
	SignupRef      string `mapstructure:"SIGNUP_REF"`
	SignupTypes    string `mapstructure:"SIGNUP_TYPES"`

	// ResendCooldown is the minimum gap between two verification-email resends for one address (e.g. "30s"). "0s" disables throttling.
	ResendCooldown string `mapstructure:"RESEND_COOLDOWN"`

	// SessionSecret signs the flow session cookie (HS256). Required when APP_ENV=production.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// SessionTTL is how long an idle signup flow is kept (e.g. "30m").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// CORSAllowedOrigins is a comma-separated list of browser origins allowed to call the API.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// DatabaseURL is the Postgres DSN for widget drafts and audit logs. Empty keeps them in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr enables the shared resend limiter when set (e.g. localhost:6379).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// MinIO holds uploaded widget logos. Empty endpoint keeps logos in memory.
	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	// KafkaBrokers is a comma-separated broker list. When set, telemetry events are also written to KafkaTopic.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	// OTLPEndpoint is the OpenTelemetry collector (gRPC). Empty installs no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8081")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("AUTH_API_BASE_URL", "https://api.trustauthx.com")
	v.SetDefault("AUTH_API_TIMEOUT", "0s")
	v.SetDefault("SIGNUP_FULL_NAME", "Test User")
	v.SetDefault("SIGNUP_IS_POOL", true)
	v.SetDefault("SIGNUP_LINK", true)
	v.SetDefault("SIGNUP_REF", "string")
	v.SetDefault("SIGNUP_TYPES", "string")
	v.SetDefault("RESEND_COOLDOWN", "30s")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "widget-logos")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "authx.console.events")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	u, err := url.Parse(cfg.AuthAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("config: AUTH_API_BASE_URL must be an absolute URL")
	}
	if cfg.Env == "production" && cfg.SessionSecret == "" {
		return nil, errors.New("config: SESSION_SECRET must be set when APP_ENV=production")
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return nil, errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}

	return &cfg, nil
}

// APITimeout parses AuthAPITimeout. Returns 0 (no timeout) if unset, invalid or negative.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.AuthAPITimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Cooldown parses ResendCooldown. Returns 30s if unset or invalid; 0 disables throttling.
func (c *Config) Cooldown() time.Duration {
	d, err := time.ParseDuration(c.ResendCooldown)
	if err != nil || d < 0 {
		return 30 * time.Second
	}
	return d
}

// FlowTTL parses SessionTTL. Returns 30m if unset, invalid or not positive.
func (c *Config) FlowTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// AllowedOrigins returns CORS origins from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

// Brokers returns the Kafka brokers from the comma-separated config.
func (c *Config) Brokers() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
