package kv

// Manager handles the lifecycle of named stores for one backend
type Manager interface {
	// OpenDB opens or creates a store with the given name
	OpenDB(name string) (DB, error)

	// CloseDB closes a specific store
	CloseDB(name string) error

	// Close closes all stores
	Close() error
}
