// Package op contains the pool controller: the four public operations and
// the engine that applies each one as a single atomic unit against the
// state store.
package op

import (
	"fmt"
	"sort"
	"time"
)

// Type identifies an operation kind.
type Type string

const (
	TypeDeposit   Type = "deposit"
	TypeWithdraw  Type = "withdraw"
	TypeSwap      Type = "swap"
	TypeClaimFees Type = "claim_fees"
)

// Operation is a state-mutating pool operation. Validate performs static
// checks with no state access; Apply runs against a buffered state table
// and reports a Result. A non-OK result discards every buffered write.
type Operation interface {
	Type() Type
	Participant() string
	Deadline() time.Time
	Validate() error
	Apply(ctx *ApplyContext) Result
}

// BaseOp carries the fields common to every operation.
type BaseOp struct {
	// Account is the participant submitting the operation.
	Account string `json:"account"`

	// DeadlineAt, when non-zero, expires the operation once passed.
	DeadlineAt time.Time `json:"deadline,omitempty"`
}

// Participant returns the submitting account.
func (b *BaseOp) Participant() string { return b.Account }

// Deadline returns the expiry time, zero when none was set.
func (b *BaseOp) Deadline() time.Time { return b.DeadlineAt }

func (b *BaseOp) validate() error {
	if b.Account == "" {
		return fmt.Errorf("operation requires an account")
	}
	return nil
}

// registry maps operation types to factories, so the entry-point layer
// can construct an empty instance to decode arguments into.
var registry = map[Type]func() Operation{}

// Register installs a factory for an operation type. Called from init.
func Register(t Type, factory func() Operation) {
	if _, dup := registry[t]; dup {
		panic(fmt.Sprintf("op: duplicate registration for %q", t))
	}
	registry[t] = factory
}

// New returns an empty operation of the given type, or false when the
// type is unknown.
func New(t Type) (Operation, bool) {
	factory, ok := registry[t]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Types lists the registered operation types, sorted.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
