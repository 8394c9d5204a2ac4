// Package sqlite implements the history journal over modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poolworks/swapd/internal/storage/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	applied_at INTEGER NOT NULL,
	op_type    TEXT    NOT NULL,
	account    TEXT    NOT NULL,
	result     TEXT    NOT NULL,
	outcome    BLOB
);
CREATE INDEX IF NOT EXISTS idx_operations_account ON operations(account, seq DESC);
`

// Journal is a sqlite-backed history journal.
type Journal struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (and if needed creates) the journal database at path.
// ":memory:" opens a private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal at %s: %w", path, err)
	}
	// modernc sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// OpenMemory opens a private in-memory journal.
func OpenMemory() (*Journal, error) {
	return Open(":memory:")
}

func (j *Journal) Append(ctx context.Context, rec *history.Record) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return 0, history.ErrJournalClosed
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO operations (applied_at, op_type, account, result, outcome) VALUES (?, ?, ?, ?, ?)`,
		rec.AppliedAt.UnixMicro(), rec.OpType, rec.Account, rec.Result, rec.Outcome)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (j *Journal) AccountRecords(ctx context.Context, account string, limit int) ([]history.Record, error) {
	if limit <= 0 {
		return nil, history.ErrInvalidLimit
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, history.ErrJournalClosed
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, applied_at, op_type, account, result, outcome
		 FROM operations WHERE account = ? ORDER BY seq DESC LIMIT ?`,
		account, limit)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (j *Journal) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		return nil, history.ErrInvalidLimit
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, history.ErrJournalClosed
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, applied_at, op_type, account, result, outcome
		 FROM operations ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (j *Journal) Count(ctx context.Context) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return 0, history.ErrJournalClosed
	}

	var count int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&count)
	return count, err
}

func (j *Journal) Ping(ctx context.Context) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return history.ErrJournalClosed
	}
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

func scanRecords(rows *sql.Rows) ([]history.Record, error) {
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		var rec history.Record
		var appliedAt int64
		if err := rows.Scan(&rec.Seq, &appliedAt, &rec.OpType, &rec.Account, &rec.Result, &rec.Outcome); err != nil {
			return nil, err
		}
		rec.AppliedAt = time.UnixMicro(appliedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ history.Journal = (*Journal)(nil)
