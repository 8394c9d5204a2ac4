// Package postgres implements the history journal over lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/poolworks/swapd/internal/storage/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	seq        BIGSERIAL PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL,
	op_type    TEXT        NOT NULL,
	account    TEXT        NOT NULL,
	result     TEXT        NOT NULL,
	outcome    BYTEA
);
CREATE INDEX IF NOT EXISTS idx_operations_account ON operations(account, seq DESC);
`

// Journal is a postgres-backed history journal.
type Journal struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open connects with the given config and ensures the schema exists.
func Open(ctx context.Context, cfg *history.Config) (*Journal, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres journal: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Append(ctx context.Context, rec *history.Record) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return 0, history.ErrJournalClosed
	}

	var seq int64
	err := j.db.QueryRowContext(ctx,
		`INSERT INTO operations (applied_at, op_type, account, result, outcome)
		 VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		rec.AppliedAt, rec.OpType, rec.Account, rec.Result, rec.Outcome).Scan(&seq)
	return seq, err
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
		 FROM operations WHERE account = $1 ORDER BY seq DESC LIMIT $2`,
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
		 FROM operations ORDER BY seq DESC LIMIT $1`, limit)
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
		var appliedAt time.Time
		if err := rows.Scan(&rec.Seq, &appliedAt, &rec.OpType, &rec.Account, &rec.Result, &rec.Outcome); err != nil {
			return nil, err
		}
		rec.AppliedAt = appliedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ history.Journal = (*Journal)(nil)
