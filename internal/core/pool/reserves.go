package pool

import (
	"github.com/poolworks/swapd/internal/core/fixedpoint"
)

// Reserve returns the balance held for one side.
func (p *Pool) Reserve(s Side) uint64 {
	if s == SideA {
		return p.ReserveA
	}
	return p.ReserveB
}

// Reserves returns both balances.
func (p *Pool) Reserves() (a, b uint64) {
	return p.ReserveA, p.ReserveB
}

// CreditReserve adds amount to one side's reserve.
func (p *Pool) CreditReserve(s Side, amount uint64) error {
	cur := p.Reserve(s)
	next, err := fixedpoint.Add(cur, amount)
	if err != nil {
		return err
	}
	p.setReserve(s, next)
	return nil
}

// DebitReserve removes amount from one side's reserve. It fails with
// ErrInsufficientReserves rather than letting a balance go below zero.
func (p *Pool) DebitReserve(s Side, amount uint64) error {
	cur := p.Reserve(s)
	if amount > cur {
		return ErrInsufficientReserves
	}
	p.setReserve(s, cur-amount)
	return nil
}

func (p *Pool) setReserve(s Side, v uint64) {
	if s == SideA {
		p.ReserveA = v
	} else {
		p.ReserveB = v
	}
}
