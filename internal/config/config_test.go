package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout())
	assert.Equal(t, "XRP", cfg.Pool.AssetA)
	assert.Equal(t, "USD", cfg.Pool.AssetB)
	assert.Equal(t, DefaultFeeBps, cfg.Pool.FeeBps)
	assert.False(t, cfg.Pool.OracleValuation)
	assert.Equal(t, "pebble", cfg.Store.Backend)
	assert.Equal(t, DefaultCacheSize, cfg.Store.CacheSize)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "lz4", cfg.Snapshot.Compressor)
}

func TestLoadConfigFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "swapd_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	content := `
[server]
bind = "127.0.0.1"
port = 9090
request_timeout_seconds = 5

[pool]
asset_a = "TOKA"
asset_b = "TOKB"
fee_bps = 100
oracle_valuation = true

[oracle]
max_age_seconds = 30
twap_window_seconds = 120

[store]
backend = "leveldb"
path = "/tmp/swapd-test"
cache_size = 64

[history]
enabled = true

[history.database]
driver = "sqlite"
database = "/tmp/swapd-test/history.db"

[snapshot]
compressor = "none"
`
	path := filepath.Join(tempDir, "swapd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout())
	assert.Equal(t, "TOKA", cfg.Pool.AssetA)
	assert.Equal(t, "TOKB", cfg.Pool.AssetB)
	assert.Equal(t, 100, cfg.Pool.FeeBps)
	assert.True(t, cfg.Pool.OracleValuation)
	assert.Equal(t, 30*time.Second, cfg.Oracle.MaxAge())
	assert.Equal(t, 2*time.Minute, cfg.Oracle.TWAPWindow())
	assert.Equal(t, "leveldb", cfg.Store.Backend)
	assert.Equal(t, 64, cfg.Store.CacheSize)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "sqlite", cfg.History.Database.Driver)
	assert.Equal(t, "none", cfg.Snapshot.Compressor)
	assert.Equal(t, path, cfg.GetConfigPath())
	assert.Equal(t, filepath.Join("/tmp/swapd-test", "state"), cfg.Store.StatePath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/swapd.toml")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 0 },
			errMsg: "port",
		},
		{
			name:   "missing asset",
			mutate: func(c *Config) { c.Pool.AssetB = "" },
			errMsg: "asset",
		},
		{
			name:   "same assets",
			mutate: func(c *Config) { c.Pool.AssetB = "xrp" },
			errMsg: "differ",
		},
		{
			name:   "fee too high",
			mutate: func(c *Config) { c.Pool.FeeBps = 10000 },
			errMsg: "fee_bps",
		},
		{
			name: "oracle enabled without staleness bound",
			mutate: func(c *Config) {
				c.Pool.OracleValuation = true
				c.Oracle.MaxAgeSeconds = 0
			},
			errMsg: "max_age_seconds",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Store.Backend = "rocksdb" },
			errMsg: "backend",
		},
		{
			name: "disk backend without path",
			mutate: func(c *Config) {
				c.Store.Backend = "pebble"
				c.Store.Path = ""
			},
			errMsg: "path",
		},
		{
			name:   "unknown compressor",
			mutate: func(c *Config) { c.Snapshot.Compressor = "zstd" },
			errMsg: "compressor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	// Memory backend needs no path.
	cfg := valid()
	cfg.Store.Backend = "memory"
	cfg.Store.Path = ""
	assert.NoError(t, ValidateConfig(cfg))
}
