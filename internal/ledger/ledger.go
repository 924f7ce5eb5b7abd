// Package ledger is the boundary to the settlement platform: atomic
// value transfer between accounts with durable balances. The engine
// only ever moves funds through this interface; escrow is a transfer
// into the engine's house account and payouts are transfers back out.
package ledger

import (
	"errors"
	"sync"
)

var (
	// ErrInsufficientFunds indicates the source account cannot cover the transfer.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrNonPositiveAmount indicates a zero or negative transfer amount.
	ErrNonPositiveAmount = errors.New("ledger: amount must be positive")
)

// Account is an opaque address on the settlement platform
type Account string

// Ledger provides atomic value transfer with a balance query. Transfers
// are all-or-nothing; there are no partial-transfer semantics.
type Ledger interface {
	Transfer(from, to Account, amount int64) error
	Balance(acct Account) int64
}

// Book is an in-memory Ledger. It stands in for the settlement
// platform in tests and local play; every mutation happens under one
// lock so a transfer is observed either fully applied or not at all.
type Book struct {
	mu       sync.Mutex
	balances map[Account]int64
}

// NewBook creates an empty settlement book
func NewBook() *Book {
	return &Book{balances: make(map[Account]int64)}
}

// Deposit credits an account out of thin air. This is the bootstrap
// path for seeding bankrolls and player funds; real deposits arrive
// from outside the engine's scope.
func (b *Book) Deposit(acct Account, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[acct] += amount
	return nil
}

// Transfer atomically moves amount from one account to another
func (b *Book) Transfer(from, to Account, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return ErrInsufficientFunds
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

// Balance returns the current balance of an account
func (b *Book) Balance(acct Account) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[acct]
}
