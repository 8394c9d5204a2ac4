package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks the complete configuration for values the daemon
// cannot start with.
func ValidateConfig(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validatePool(&cfg.Pool); err != nil {
		return fmt.Errorf("pool config validation failed: %w", err)
	}
	if cfg.Pool.OracleValuation {
		if err := validateOracle(&cfg.Oracle); err != nil {
			return fmt.Errorf("oracle config validation failed: %w", err)
		}
	}
	if err := validateStore(&cfg.Store); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}
	if cfg.History.Enabled {
		if err := cfg.History.Database.Validate(); err != nil {
			return fmt.Errorf("history config validation failed: %w", err)
		}
	}
	if err := validateSnapshot(&cfg.Snapshot); err != nil {
		return fmt.Errorf("snapshot config validation failed: %w", err)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %d", s.RequestTimeoutSeconds)
	}
	return nil
}

func validatePool(p *PoolConfig) error {
	if p.AssetA == "" || p.AssetB == "" {
		return fmt.Errorf("both asset_a and asset_b must be set")
	}
	if strings.EqualFold(p.AssetA, p.AssetB) {
		return fmt.Errorf("asset_a and asset_b must differ, both are %q", p.AssetA)
	}
	if p.FeeBps < 0 || p.FeeBps >= 10000 {
		return fmt.Errorf("fee_bps must be in [0, 10000), got %d", p.FeeBps)
	}
	return nil
}

func validateOracle(o *OracleConfig) error {
	if o.MaxAgeSeconds <= 0 {
		return fmt.Errorf("max_age_seconds must be positive when oracle valuation is enabled, got %d", o.MaxAgeSeconds)
	}
	if o.TWAPWindowSeconds <= 0 {
		return fmt.Errorf("twap_window_seconds must be positive when oracle valuation is enabled, got %d", o.TWAPWindowSeconds)
	}
	return nil
}

func validateStore(s *StoreConfig) error {
	switch strings.ToLower(s.Backend) {
	case "pebble", "leveldb":
		if s.Path == "" {
			return fmt.Errorf("store path must be set for the %s backend", s.Backend)
		}
	case "memory":
		// no path needed
	default:
		return fmt.Errorf("unknown store backend %q (supported: pebble, leveldb, memory)", s.Backend)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", s.CacheSize)
	}
	return nil
}

func validateSnapshot(s *SnapshotConfig) error {
	switch strings.ToLower(s.Compressor) {
	case "none", "lz4":
		return nil
	default:
		return fmt.Errorf("unknown snapshot compressor %q (supported: none, lz4)", s.Compressor)
	}
}
