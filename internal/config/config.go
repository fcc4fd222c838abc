// Package config manages environment variables.
//
// It reads variables from the `.env` file, loads them into structured
// Go types and validates that required values are present so they can
// be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability, rate limiting).
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix VACQ_.
	Keys are lowercased and a double underscore marks nesting, so
	VACQ_SERVER__READ_TIMEOUT -> server.read_timeout -> Config.Server.ReadTimeout.
	A single underscore stays part of the key name.
*/

// EnvPrefix is the prefix every application env var carries.
const EnvPrefix = "VACQ_"

// ServiceName tags logs, traces and APM dashboards.
const ServiceName = "vacq"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from and the
// `validate:"..."` tags are enforced by go-playground/validator.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth"`
	Integration   IntegrationConfig    `koanf:"integration"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development staging production"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
	BodyLimit          string   `koanf:"body_limit" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// ConnMaxLifetime and ConnMaxIdleTime are seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// DSN renders the postgres URL for pgx. The password is URL-escaped so
// characters like ':' or '@' do not break the URL structure.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		url.QueryEscape(d.Password),
		net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		d.Name,
		d.SSLMode,
	)
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig stores authentication-related secrets.
//
// SecretKey is the Clerk backend key. When it is empty the API runs without
// authentication and every caller is treated as a local administrator, which
// is only accepted outside production (see Validate).
type AuthConfig struct {
	SecretKey string `koanf:"secret_key"`
	AdminRole string `koanf:"admin_role"`
}

// Enabled reports whether Clerk authentication is configured.
func (a AuthConfig) Enabled() bool {
	return a.SecretKey != ""
}

// IntegrationConfig holds third party API credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	MailFrom     string `koanf:"mail_from"`
}

// RateLimitConfig bounds how many requests a single client IP may make
// inside one window.
type RateLimitConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Window      time.Duration `koanf:"window" validate:"min=1s"`
	MaxRequests int           `koanf:"max_requests" validate:"min=1"`
}

// defaultConfig returns a Config pre-populated with every optional value.
// koanf only overwrites keys present in the environment, so a single
// VACQ_OBSERVABILITY__LOGGING__LEVEL does not wipe the rest of the block.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "3333",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			BodyLimit:          "1M",
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Auth: AuthConfig{
			AdminRole: "admin",
		},
		Integration: IntegrationConfig{
			MailFrom: "VacQ <onboarding@resend.dev>",
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Window:      10 * time.Minute,
			MaxRequests: 100,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps VACQ_SERVER__READ_TIMEOUT to server.read_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables, unmarshals it into
// Config, validates it, applies defaults and returns the resulting config.
//
// Behavior summary:
//   - Loads env vars with prefix VACQ_
//   - Converts env keys into koanf keys using "." nesting
//   - Unmarshals into a defaulted Config
//   - Validates required config blocks/fields
//   - Sets default observability if missing and pins service name + environment
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load initial env variables: %w", err)
	}

	mainConfig := defaultConfig()

	// Unmarshal from the root. Keys missing from the env keep their defaults.
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Validate runs struct-tag validation plus the rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Primary.Env == "production" && !c.Auth.Enabled() {
		return fmt.Errorf("auth.secret_key is required in production")
	}

	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("invalid observability config: %w", err)
		}
	}

	return nil
}
