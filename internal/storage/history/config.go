package history

import (
	"fmt"
	"time"
)

// Config contains journal database settings
type Config struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Database is the database name, or the file path for sqlite.
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`

	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// NewConfig creates a Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          "sqlite",
		Database:        "swapd-history.db",
		SSLMode:         "prefer",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// SQLiteConfig creates a sqlite-specific configuration
func SQLiteConfig(path string) *Config {
	config := NewConfig()
	config.Driver = "sqlite"
	config.Database = path
	config.MaxOpenConns = 1
	config.MaxIdleConns = 1
	return config
}

// PostgresConfig creates a postgres-specific configuration
func PostgresConfig() *Config {
	config := NewConfig()
	config.Driver = "postgres"
	config.Host = "localhost"
	config.Port = 5432
	config.Database = "swapd"
	config.Username = "swapd"
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "sqlite3":
		c.Driver = "sqlite"
		if c.Database == "" {
			return ErrMissingDatabase
		}
	case "postgres", "postgresql":
		c.Driver = "postgres"
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port: %d", c.Port)
		}
		if c.Database == "" {
			return ErrMissingDatabase
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
	return nil
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.SSLMode)
	if c.Username != "" {
		dsn += fmt.Sprintf(" user=%s", c.Username)
	}
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}
