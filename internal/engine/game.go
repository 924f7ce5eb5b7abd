package engine

import (
	"time"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/ledger"
)

// State is a game's position in the deal/hit/stand lifecycle
type State int

const (
	// StateIdle is the zero state before any deal
	StateIdle State = iota

	// StateAwaitingDeal means the opening entropy request is in flight
	StateAwaitingDeal

	// StatePlayerTurn means the player may hit or stand
	StatePlayerTurn

	// StateAwaitingHit means a hit's entropy request is in flight
	StateAwaitingHit

	// StateDealerResolution means the dealer is drawing out; it spans as
	// many entropy round-trips as the dealer needs cards
	StateDealerResolution

	// StateSettled is terminal: funds have moved and the game is over
	StateSettled

	// StateAborted is terminal: the engine was decommissioned while the
	// game was still unfinished; its escrow drained with the balance
	StateAborted
)

// String returns the string representation of a state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDeal:
		return "awaiting_deal"
	case StatePlayerTurn:
		return "player_turn"
	case StateAwaitingHit:
		return "awaiting_hit"
	case StateDealerResolution:
		return "dealer_resolution"
	case StateSettled:
		return "settled"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal returns true once no further transitions are possible
func (s State) Terminal() bool {
	return s == StateSettled || s == StateAborted
}

// Awaiting returns true while an entropy request is in flight and the
// game may only be advanced by the matching fulfillment.
func (s State) Awaiting() bool {
	return s == StateAwaitingDeal || s == StateAwaitingHit || s == StateDealerResolution
}

// Outcome is the settled result of a game
type Outcome int

const (
	OutcomeUndecided Outcome = iota
	OutcomePlayerWin
	OutcomeDealerWin
	OutcomePush
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomePlayerWin:
		return "player_win"
	case OutcomeDealerWin:
		return "dealer_win"
	case OutcomePush:
		return "push"
	default:
		return "undecided"
	}
}

// Game is one player session from deal to settlement. A player has at
// most one game in progress; a settled game is superseded by the next
// deal.
type Game struct {
	ID        string
	Owner     ledger.Account
	Wager     int64
	Player    cards.Hand
	Dealer    cards.Hand
	State     State
	Outcome   Outcome
	Seq       uint64
	PendingID string
	CreatedAt time.Time
}

// InProgress reports whether the game still holds an escrowed wager
func (g *Game) InProgress() bool {
	return !g.State.Terminal()
}

// PlayerValue scores the player's hand
func (g *Game) PlayerValue() int {
	return cards.HandValue(g.Player)
}

// DealerValue scores the dealer's hand
func (g *Game) DealerValue() int {
	return cards.HandValue(g.Dealer)
}
