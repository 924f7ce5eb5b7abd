package ledger

import (
	"errors"
	"sync"
	"testing"
)

func TestTransferMovesFunds(t *testing.T) {
	t.Parallel()

	book := NewBook()
	if err := book.Deposit("alice", 100); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	if err := book.Transfer("alice", "bob", 60); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if got := book.Balance("alice"); got != 40 {
		t.Errorf("alice balance = %d, want 40", got)
	}
	if got := book.Balance("bob"); got != 60 {
		t.Errorf("bob balance = %d, want 60", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	t.Parallel()

	book := NewBook()
	_ = book.Deposit("alice", 10)

	err := book.Transfer("alice", "bob", 11)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing moved
	if got := book.Balance("alice"); got != 10 {
		t.Errorf("alice balance = %d, want 10", got)
	}
	if got := book.Balance("bob"); got != 0 {
		t.Errorf("bob balance = %d, want 0", got)
	}
}

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	t.Parallel()

	book := NewBook()
	_ = book.Deposit("alice", 10)

	for _, amount := range []int64{0, -1} {
		if err := book.Transfer("alice", "bob", amount); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("Transfer(%d): expected ErrNonPositiveAmount, got %v", amount, err)
		}
	}
	if err := book.Deposit("alice", 0); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("Deposit(0): expected ErrNonPositiveAmount, got %v", err)
	}
}

func TestConcurrentTransfersConserveValue(t *testing.T) {
	t.Parallel()

	book := NewBook()
	_ = book.Deposit("pot", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = book.Transfer("pot", "sink", 1)
			}
		}()
	}
	wg.Wait()

	total := book.Balance("pot") + book.Balance("sink")
	if total != 1000 {
		t.Errorf("value not conserved: pot+sink = %d, want 1000", total)
	}
	if got := book.Balance("pot"); got != 0 {
		t.Errorf("pot should be drained, got %d", got)
	}
}
