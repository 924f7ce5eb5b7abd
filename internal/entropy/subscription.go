// Package entropy funds and correlates randomness requests. A
// Subscription is a long-lived, pre-funded credit pool shared by many
// games; the Gateway spends it, one request at a time, and routes the
// oracle's asynchronous fulfillments back to the game that asked.
package entropy

import (
	"errors"
	"sync"
)

var (
	// ErrNotSubscriptionOwner indicates the caller may not administer the subscription.
	ErrNotSubscriptionOwner = errors.New("entropy: caller does not own the subscription")

	// ErrInsufficientCredit indicates the subscription cannot cover the request cost.
	ErrInsufficientCredit = errors.New("entropy: insufficient subscription credit")

	// ErrConsumerNotAllowed indicates the requesting engine is not on the allow-list.
	ErrConsumerNotAllowed = errors.New("entropy: consumer not authorized on subscription")

	// ErrNonPositiveAmount indicates a zero or negative funding or cost amount.
	ErrNonPositiveAmount = errors.New("entropy: amount must be positive")
)

// Subscription is a funded credit balance that pays for randomness
// requests. It is created once, outlives every game drawing on it, and
// is only mutated through the operations below.
type Subscription struct {
	mu        sync.Mutex
	owner     string
	balance   int64
	consumers map[string]bool
}

// NewSubscription creates an unfunded subscription owned by owner
func NewSubscription(owner string) *Subscription {
	return &Subscription{
		owner:     owner,
		consumers: make(map[string]bool),
	}
}

// Fund increases the credit balance. Only the subscription owner may fund.
func (s *Subscription) Fund(caller string, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.owner {
		return ErrNotSubscriptionOwner
	}
	s.balance += amount
	return nil
}

// Consume pays for one randomness request. The check and the decrement
// happen under the same lock, so two concurrent requests can never both
// succeed against a balance that only covers one.
func (s *Subscription) Consume(consumer string, cost int64) error {
	if cost <= 0 {
		return ErrNonPositiveAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.consumers[consumer] {
		return ErrConsumerNotAllowed
	}
	if s.balance < cost {
		return ErrInsufficientCredit
	}
	s.balance -= cost
	return nil
}

// AddConsumer authorizes an engine to draw against the subscription.
// This is an allow-list, not a capacity limit.
func (s *Subscription) AddConsumer(caller, consumer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.owner {
		return ErrNotSubscriptionOwner
	}
	s.consumers[consumer] = true
	return nil
}

// Balance returns the remaining credit
func (s *Subscription) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Consumers returns the authorized consumer ids
func (s *Subscription) Consumers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.consumers))
	for c := range s.consumers {
		out = append(out, c)
	}
	return out
}

// Owner returns the subscription owner
func (s *Subscription) Owner() string {
	return s.owner
}
