// Package history journals every applied operation to a relational
// database so participants and tooling can query what the engine did.
package history

import (
	"context"
	"log"
	"time"
)

// Record is one journaled operation.
type Record struct {
	Seq       int64     `json:"seq"`
	AppliedAt time.Time `json:"applied_at"`
	OpType    string    `json:"op_type"`
	Account   string    `json:"account"`
	Result    string    `json:"result"`

	// Outcome holds the operation's outcome as a JSON document.
	Outcome []byte `json:"outcome"`
}

// Journal stores and queries operation records.
type Journal interface {
	// Append writes one record and returns its assigned sequence.
	Append(ctx context.Context, rec *Record) (int64, error)

	// AccountRecords returns the newest records for one account,
	// newest first, up to limit.
	AccountRecords(ctx context.Context, account string, limit int) ([]Record, error)

	// Recent returns the newest records across all accounts, newest
	// first, up to limit.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Count returns the total number of journaled records.
	Count(ctx context.Context) (int64, error)

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	Close() error
}

// Logger interface for dependency injection
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger provides a basic logger implementation
type DefaultLogger struct {
	logger *log.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{logger: log.Default()}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Printf("[DEBUG] "+msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logger.Printf("[INFO] "+msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Printf("[WARN] "+msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logger.Printf("[ERROR] "+msg, fields...)
}
