// Package ledger keeps the standalone balance book: per-account asset
// balances in the kv store, with the pool's holding account as just
// another account. It is the settlement backend the engine's transfers
// run against when swapd runs self-contained.
package ledger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/poolworks/swapd/internal/core/op"
	"github.com/poolworks/swapd/internal/core/pool"
	"github.com/poolworks/swapd/internal/storage/kv"
)

var (
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrBalanceOverflow   = errors.New("ledger: balance overflow")
)

const keyPrefix = "bal/"

// Ledger is a balance book over a kv store. The zero balance is not
// stored; reading an unknown account yields zero.
type Ledger struct {
	db      kv.DB
	holding string

	// mu serializes settlements so the balance checks and every leg's
	// write land atomically in one batch.
	mu sync.Mutex
}

// New creates a ledger whose holding account is derived from the pool's
// canonical pair.
func New(db kv.DB, assetA, assetB string) *Ledger {
	id := pool.AccountID(assetA, assetB)
	return &Ledger{
		db:      db,
		holding: "pool:" + hex.EncodeToString(id[:]),
	}
}

// HoldingAccount returns the pool's own account name in the book.
func (l *Ledger) HoldingAccount() string {
	return l.holding
}

func balanceKey(account, asset string) []byte {
	return []byte(keyPrefix + account + "/" + asset)
}

// Balance reads an account's balance for one asset.
func (l *Ledger) Balance(ctx context.Context, account, asset string) (uint64, error) {
	data, err := l.db.Read(ctx, balanceKey(account, asset))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger: read balance: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("ledger: malformed balance record for %s/%s", account, asset)
	}
	return binary.BigEndian.Uint64(data), nil
}

// Credit adds funds to an account out of thin air. Admin surface only.
func (l *Ledger) Credit(ctx context.Context, account, asset string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.Balance(ctx, account, asset)
	if err != nil {
		return err
	}
	if current+amount < current {
		return ErrBalanceOverflow
	}
	return l.writeBalance(ctx, account, asset, current+amount)
}

// Settle applies an operation's transfer legs as one unit. Every debit
// is checked against the working balances before anything is written, so
// a rejected leg leaves the whole book untouched; the writes for all
// legs then go out in a single batch.
func (l *Ledger) Settle(legs []op.Transfer) error {
	if len(legs) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ctx := context.Background()
	balances := make(map[string]uint64, 2*len(legs))
	var touched []string

	load := func(account, asset string) (string, error) {
		k := string(balanceKey(account, asset))
		if _, ok := balances[k]; !ok {
			bal, err := l.Balance(ctx, account, asset)
			if err != nil {
				return "", err
			}
			balances[k] = bal
			touched = append(touched, k)
		}
		return k, nil
	}

	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		from, to := l.holding, leg.Participant
		if leg.Inbound {
			from, to = leg.Participant, l.holding
		}
		fromKey, err := load(from, leg.Asset)
		if err != nil {
			return err
		}
		toKey, err := load(to, leg.Asset)
		if err != nil {
			return err
		}
		if balances[fromKey] < leg.Amount {
			return fmt.Errorf("%w: %s has %d %s, needs %d", ErrInsufficientFunds, from, balances[fromKey], leg.Asset, leg.Amount)
		}
		if balances[toKey]+leg.Amount < balances[toKey] {
			return ErrBalanceOverflow
		}
		balances[fromKey] -= leg.Amount
		balances[toKey] += leg.Amount
	}

	if len(touched) == 0 {
		return nil
	}

	ops := make([]kv.BatchOperation, 0, len(touched))
	for _, k := range touched {
		if bal := balances[k]; bal > 0 {
			var val [8]byte
			binary.BigEndian.PutUint64(val[:], bal)
			ops = append(ops, kv.BatchOperation{Type: kv.BatchPut, Key: []byte(k), Value: val[:]})
		} else {
			ops = append(ops, kv.BatchOperation{Type: kv.BatchDelete, Key: []byte(k)})
		}
	}
	if err := l.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("ledger: apply settlement: %w", err)
	}
	return nil
}

var _ op.AssetTransfer = (*Ledger)(nil)

func (l *Ledger) writeBalance(ctx context.Context, account, asset string, balance uint64) error {
	if balance == 0 {
		return l.db.Delete(ctx, balanceKey(account, asset))
	}
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], balance)
	return l.db.Write(ctx, balanceKey(account, asset), val[:])
}
