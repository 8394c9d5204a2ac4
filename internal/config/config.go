// Package config holds the swapd daemon configuration: the pool pair and
// owner-settable parameters, the server listen settings, and the storage
// backends. Configuration is loaded from a TOML file plus SWAPD_
// environment variables, with defaults applied first.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/poolworks/swapd/internal/storage/history"
)

// Config is the complete swapd configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Pool     PoolConfig     `toml:"pool" mapstructure:"pool"`
	Oracle   OracleConfig   `toml:"oracle" mapstructure:"oracle"`
	Store    StoreConfig    `toml:"store" mapstructure:"store"`
	History  HistoryConfig  `toml:"history" mapstructure:"history"`
	Snapshot SnapshotConfig `toml:"snapshot" mapstructure:"snapshot"`

	// DebugLogfile mirrors the flag of the same name; empty means stderr.
	DebugLogfile string `toml:"debug_logfile" mapstructure:"debug_logfile"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig covers the HTTP JSON-RPC and WebSocket listener.
type ServerConfig struct {
	Bind string `toml:"bind" mapstructure:"bind"`
	Port int    `toml:"port" mapstructure:"port"`

	// RequestTimeoutSeconds bounds a single RPC dispatch.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

// PoolConfig names the pair and the owner-settable engine parameters.
type PoolConfig struct {
	AssetA string `toml:"asset_a" mapstructure:"asset_a"`
	AssetB string `toml:"asset_b" mapstructure:"asset_b"`

	// FeeBps is the swap fee in basis points, retained in the input asset.
	FeeBps int `toml:"fee_bps" mapstructure:"fee_bps"`

	// OracleValuation enables externally-priced deposit sizing for
	// non-empty pools. Requires the oracle section to be configured.
	OracleValuation bool `toml:"oracle_valuation" mapstructure:"oracle_valuation"`
}

// OracleConfig bounds the external price feed.
type OracleConfig struct {
	// MaxAgeSeconds is the staleness bound: prices older than this are
	// rejected rather than used.
	MaxAgeSeconds int `toml:"max_age_seconds" mapstructure:"max_age_seconds"`

	// TWAPWindowSeconds is the smoothing window for the valuation ratio.
	TWAPWindowSeconds int `toml:"twap_window_seconds" mapstructure:"twap_window_seconds"`
}

// StoreConfig selects the durable key-value backend for pool state.
type StoreConfig struct {
	// Backend is one of "pebble", "leveldb" or "memory".
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the on-disk root for the chosen backend. Ignored for the
	// memory backend.
	Path string `toml:"path" mapstructure:"path"`

	// CacheSize is the entry count of the read-through LRU in front of
	// the store. Zero picks the built-in default.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// HistoryConfig wraps the operation journal settings. The inner database
// config is shared with the journal backends.
type HistoryConfig struct {
	Enabled  bool           `toml:"enabled" mapstructure:"enabled"`
	Database history.Config `toml:"database" mapstructure:"database"`
}

// SnapshotConfig selects the state snapshot codec.
type SnapshotConfig struct {
	// Compressor is "lz4" or "none".
	Compressor string `toml:"compressor" mapstructure:"compressor"`
}

// Addr returns the listen address for the server section.
func (s ServerConfig) Addr() string {
	port := s.Port
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", s.Bind, port)
}

// RequestTimeout returns the per-request deadline as a duration.
func (s ServerConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// MaxAge returns the oracle staleness bound as a duration.
func (o OracleConfig) MaxAge() time.Duration {
	return time.Duration(o.MaxAgeSeconds) * time.Second
}

// TWAPWindow returns the oracle smoothing window as a duration.
func (o OracleConfig) TWAPWindow() time.Duration {
	return time.Duration(o.TWAPWindowSeconds) * time.Second
}

// StatePath returns the kv root directory for the store section.
func (s StoreConfig) StatePath() string {
	return filepath.Join(s.Path, "state")
}

// GetConfigPath returns the path the configuration was loaded from, or
// empty when only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
