// Package config manages environment variables.
//
// It reads variables from the process environment (and from a `.env` file
// when present), loads them into structured Go types, and validates that
// required values are present so the app fails fast on bad or missing config.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values.
//   - Provide sane defaults for optional config blocks (listing, rate limit, observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the POLICYDESK_ prefix. The prefix is removed,
	the key is lowercased and a double underscore marks nesting:

	  POLICYDESK_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns -> Config.Database.MaxOpenConns

	Single underscores stay part of the key name.
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "POLICYDESK_"

// ServiceName tags logs, traces and metrics emitted by this service.
const ServiceName = "policydesk"

// Config is the root configuration object for the application.
//
// Pointer blocks are optional. If not provided, defaults are injected by
// LoadConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Listing       *ListingConfig       `koanf:"listing"`
	RateLimit     *RateLimitConfig     `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Usually used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// ExposeErrorDetails adds the underlying error text to failure
	// responses. Keep it off outside development.
	ExposeErrorDetails bool `koanf:"expose_error_details"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// Either URL or the discrete host/port/user/password/name fields must be
// set. When URL is present it wins.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	Host     string `koanf:"host" validate:"required_without=URL"`
	Port     int    `koanf:"port" validate:"required_without=URL"`
	User     string `koanf:"user" validate:"required_without=URL"`
	Password string `koanf:"password"`
	Name     string `koanf:"name" validate:"required_without=URL"`
	SSLMode  string `koanf:"ssl_mode"`

	// MaxOpenConns is the hard upper bound of connections held by the pool.
	MaxOpenConns int `koanf:"max_open_conns" validate:"required,min=1"`
	// MinConns is the number of connections the pool keeps warm.
	MinConns int `koanf:"min_conns" validate:"min=0,ltefield=MaxOpenConns"`
	// ConnMaxLifetime and ConnMaxIdleTime are in seconds.
	ConnMaxLifetime int `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int `koanf:"conn_max_idle_time" validate:"min=0"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// IntegrationConfig stores third-party integration settings.
//
// Policy notifications are only sent when both ResendAPIKey and
// NotificationEmail are set.
type IntegrationConfig struct {
	ResendAPIKey      string `koanf:"resend_api_key"`
	NotificationEmail string `koanf:"notification_email" validate:"omitempty,email"`
	SenderEmail       string `koanf:"sender_email" validate:"omitempty,email"`
}

// NotificationsEnabled reports whether policy notifications can be delivered.
func (c IntegrationConfig) NotificationsEnabled() bool {
	return c.ResendAPIKey != "" && c.NotificationEmail != ""
}

// listKeys are the comma-separated list settings.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// envKeyValue maps an env var to its koanf key and splits list values.
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if !listKeys[key] {
		return key, value
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults and returns the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	applyDefaults(mainConfig)

	if err := mainConfig.Listing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid listing config: %w", err)
	}
	if err := mainConfig.RateLimit.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// applyDefaults fills optional blocks that were not provided.
//
// Service name and environment on the observability block are always
// overwritten so telemetry carries consistent naming.
func applyDefaults(cfg *Config) {
	if cfg.Listing == nil {
		cfg.Listing = DefaultListingConfig()
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = DefaultRateLimitConfig()
	}
	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	cfg.Observability.ServiceName = ServiceName
	cfg.Observability.Environment = cfg.Primary.Env
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
