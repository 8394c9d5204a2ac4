package config

import "github.com/spf13/viper"

// Built-in defaults applied before any file or environment override.
const (
	DefaultPort           = 7244
	DefaultRequestTimeout = 30

	DefaultFeeBps = 30

	DefaultOracleMaxAge     = 60
	DefaultOracleTWAPWindow = 300

	DefaultStoreBackend = "pebble"
	DefaultStorePath    = "swapd-data"
	DefaultCacheSize    = 16384

	DefaultSnapshotCompressor = "lz4"
)

// setDefaults installs the built-in defaults on a viper instance.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.bind", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.request_timeout_seconds", DefaultRequestTimeout)

	// Pool
	v.SetDefault("pool.asset_a", "XRP")
	v.SetDefault("pool.asset_b", "USD")
	v.SetDefault("pool.fee_bps", DefaultFeeBps)
	v.SetDefault("pool.oracle_valuation", false)

	// Oracle
	v.SetDefault("oracle.max_age_seconds", DefaultOracleMaxAge)
	v.SetDefault("oracle.twap_window_seconds", DefaultOracleTWAPWindow)

	// Store
	v.SetDefault("store.backend", DefaultStoreBackend)
	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("store.cache_size", DefaultCacheSize)

	// History journal. Disabled by default; sqlite when enabled.
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.database.driver", "sqlite")
	v.SetDefault("history.database.database", "swapd-data/history.db")
	v.SetDefault("history.database.max_open_conns", 1)
	v.SetDefault("history.database.max_idle_conns", 1)

	// Snapshot
	v.SetDefault("snapshot.compressor", DefaultSnapshotCompressor)

	v.SetDefault("debug_logfile", "")
}
