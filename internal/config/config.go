// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Driver names accepted by DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every runtime setting. All fields come from RABOTIM_*
// environment variables.
type Config struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH"` // empty means db.DefaultPath
	DatabaseURL string `env:"DATABASE_URL"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`

	RedisURL string `env:"REDIS_URL"`
	NATSURL  string `env:"NATS_URL"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM" envDefault:"Rabotim <noreply@rabotim.com>"`
	ResendURL    string `env:"RESEND_URL" envDefault:"https://api.resend.com/emails"`

	FeedbackUnlockAfter time.Duration `env:"FEEDBACK_UNLOCK_AFTER" envDefault:"168h"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Prefix is prepended to every variable name.
const Prefix = "RABOTIM_"

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%sDATABASE_URL is required when %sDB_DRIVER=postgres", Prefix, Prefix)
		}
	default:
		return fmt.Errorf("unknown %sDB_DRIVER %q (want sqlite or postgres)", Prefix, c.DBDriver)
	}

	if c.FeedbackUnlockAfter <= 0 {
		return fmt.Errorf("%sFEEDBACK_UNLOCK_AFTER must be positive (got %s)", Prefix, c.FeedbackUnlockAfter)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%sSHUTDOWN_TIMEOUT must be positive (got %s)", Prefix, c.ShutdownTimeout)
	}
	if c.ResendAPIKey != "" && c.ResendFrom == "" {
		return fmt.Errorf("%sRESEND_FROM is required when a Resend API key is set", Prefix)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown %sLOG_FORMAT %q (want text or json)", Prefix, c.LogFormat)
	}
	return nil
}

// AuthEnabled reports whether HTTP requests are authenticated.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}
