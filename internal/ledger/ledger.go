// Package ledger defines the chip custody collaborator the engine settles
// against. The engine never owns balances; it only instructs credits and
// debits in whole chip units.
package ledger

import (
	"errors"
	"sync"
)

// ErrInsufficientFunds is returned by Debit when the account cannot cover
// the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the external chip store. Amounts are integer chip units with
// no fractional rounding.
type Ledger interface {
	Credit(account string, amount uint64)
	Debit(account string, amount uint64) error
	Balance(account string) uint64
}

// MemLedger is an in-memory Ledger for tests and local simulation.
type MemLedger struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{balances: make(map[string]uint64)}
}

// Credit adds amount to the account.
func (l *MemLedger) Credit(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Debit removes amount from the account, failing atomically if the
// balance cannot cover it.
func (l *MemLedger) Debit(account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[account] < amount {
		return ErrInsufficientFunds
	}
	l.balances[account] -= amount
	return nil
}

// Balance returns the account's current balance.
func (l *MemLedger) Balance(account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}
