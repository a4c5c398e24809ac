// Package config loads the runtime configuration from environment
// variables.
//
// Variables carry the ABSL_ prefix and use a double underscore for
// nesting, so ABSL_DATABASE__DRIVER fills Config.Database.Driver. A
// `.env` file in the working directory is loaded first if present.
// Values are decoded over Default() and then validated, so only what
// differs from the defaults needs to be set.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process environment
	// before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "ABSL_"

// Config is the root configuration object.
type Config struct {
	Primary       Primary             `koanf:"primary" validate:"required"`
	Database      DatabaseConfig      `koanf:"database" validate:"required"`
	Accessor      AccessorConfig      `koanf:"accessor" validate:"required"`
	Observability ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// DatabaseConfig selects the driver and how to reach the database.
//
// Postgres and MySQL are reached either through DSN or through the
// host/port/user/password/name fields. SQLite only needs Path, which may
// be ":memory:".
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"required,oneof=postgres mysql sqlite"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=0,max=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	Path            string        `koanf:"path" validate:"required_if=Driver sqlite"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"min=0"`
}

// Validate checks the cross-field rules struct tags cannot express.
func (c *DatabaseConfig) Validate() error {
	if c.Driver == "sqlite" || c.DSN != "" {
		return nil
	}

	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Port == 0 {
		missing = append(missing, "port")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("database %s requires dsn or %s", c.Driver, strings.Join(missing, ", "))
	}
	return nil
}

// AccessorConfig tunes the table accessor.
type AccessorConfig struct {
	// PageRowCount is the default page size of every table.
	PageRowCount int `koanf:"page_row_count" validate:"min=1"`

	// EscapeHTML entity-encodes bound text before storage. Only enable it
	// when stored text must already be safe to render as HTML.
	EscapeHTML bool `koanf:"escape_html"`

	// SlowQueryThreshold overrides observability.logging.slow_query_threshold
	// for accessor statements when set.
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold" validate:"min=0"`
}

// Default returns the configuration used for every unset variable.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "local"},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "absl.db",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 15 * time.Minute,
		},
		Accessor: AccessorConfig{
			PageRowCount: 10,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig reads the environment, decodes it over Default() and
// validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// ABSL_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// The service name is fixed; the environment follows primary.env.
	mainConfig.Observability.ServiceName = "absl"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := mainConfig.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// SlowQueryThreshold returns the threshold the accessor should warn at.
func (c *Config) SlowQueryThreshold() time.Duration {
	if c.Accessor.SlowQueryThreshold > 0 {
		return c.Accessor.SlowQueryThreshold
	}
	return c.Observability.Logging.SlowQueryThreshold
}
