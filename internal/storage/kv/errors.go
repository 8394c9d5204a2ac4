package kv

import "errors"

var (
	// ErrDBClosed is returned when trying to operate on a closed store
	ErrDBClosed = errors.New("kv store is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the store
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnknownBackend is returned when the configured backend name is
	// not registered
	ErrUnknownBackend = errors.New("unknown kv backend")

	// ErrBatchOperationFailed is returned when a batch operation fails
	ErrBatchOperationFailed = errors.New("batch operation failed")
)
