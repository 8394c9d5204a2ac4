package history

import "errors"

var (
	// ErrJournalClosed is returned when operating on a closed journal
	ErrJournalClosed = errors.New("history journal is closed")

	// ErrInvalidLimit is returned for a non-positive query limit
	ErrInvalidLimit = errors.New("invalid query limit")

	// ErrMissingDatabase is returned when the config names no database
	ErrMissingDatabase = errors.New("missing database name")

	// ErrMissingHost is returned when the postgres config names no host
	ErrMissingHost = errors.New("missing database host")

	// ErrUnsupportedDriver is returned for an unknown driver name
	ErrUnsupportedDriver = errors.New("unsupported history driver")
)
