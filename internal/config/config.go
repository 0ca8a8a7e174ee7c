// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`   // application environment (dev/test/prod)
	Port string `env:"APP_PORT" envDefault:"8080"` // HTTP port to listen on

	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`             // mysql or sqlite
	DBUser   string `env:"DB_USER"`                                  // database username
	DBPass   string `env:"DB_PASS"`                                  // database password (optional)
	DBHost   string `env:"DB_HOST" envDefault:"localhost"`           // database host address
	DBPort   string `env:"DB_PORT" envDefault:"3306"`                // database port number
	DBName   string `env:"DB_NAME" envDefault:"study_rooms"`         // database name
	DBPath   string `env:"DB_PATH" envDefault:"data/study_rooms.db"` // sqlite file
	Migrate  bool   `env:"DB_MIGRATE" envDefault:"true"`             // create the schema at startup

	JWTSecret    string `env:"JWT_SECRET,required,notEmpty"`        // secret used to verify JWTs
	AccessTTLMin int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"` // access token time-to-live in minutes

	SanctionDays int `env:"SANCTION_DAYS" envDefault:"60"` // length of a no-show sanction
	DailyCap     int `env:"DAILY_CAP" envDefault:"2"`      // active reservations per building and day
	WeeklyCap    int `env:"WEEKLY_CAP" envDefault:"3"`     // active reservations per week

	SlotCatalogPath string        `env:"SLOT_CATALOG_PATH"`            // YAML slot catalogue; empty uses 08:00-23:00 hourly
	LockTTL         time.Duration `env:"LOCK_TTL" envDefault:"5s"`     // lifetime of a slot lock
	LockWait        time.Duration `env:"LOCK_WAIT" envDefault:"500ms"` // how long to wait for a held slot lock

	RabbitMQURL  string `env:"RABBITMQ_URL"`                                      // audit broker; empty disables publishing
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"logs/reservations.log"` // consumer output file
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`                       // debug, info, warn or error

	OTelEndpoint string `env:"OTEL_ENDPOINT"`                  // OTLP/HTTP collector URL; empty disables tracing
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"` // set false to keep the endpoint but stop exporting
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBUser == "" {
			return errors.New("config: DB_USER is required for mysql")
		}
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.SanctionDays <= 0 || c.DailyCap <= 0 || c.WeeklyCap <= 0 {
		return errors.New("config: SANCTION_DAYS, DAILY_CAP and WEEKLY_CAP must be positive")
	}
	return nil
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}
