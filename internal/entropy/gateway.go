package entropy

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/requestid"
)

var (
	// ErrUnknownRequest indicates a fulfillment for an id that was never
	// issued or has already been consumed. This is the replay guard: a
	// correlation id resolves at most once.
	ErrUnknownRequest = errors.New("entropy: unknown or already consumed request id")

	// ErrNoWords indicates a fulfillment that carried no entropy words.
	ErrNoWords = errors.New("entropy: fulfillment carried no words")

	// ErrNoResume indicates no resume function has been registered yet.
	ErrNoResume = errors.New("entropy: no resume function registered")
)

// Purpose tags what a randomness request will be spent on, so the
// resume path knows how to apply the decoded cards.
type Purpose int

const (
	PurposeDeal Purpose = iota
	PurposeHit
	PurposeDealerDraw
)

// String returns the string representation of a purpose
func (p Purpose) String() string {
	switch p {
	case PurposeDeal:
		return "deal"
	case PurposeHit:
		return "hit"
	case PurposeDealerDraw:
		return "dealer_draw"
	default:
		return "unknown"
	}
}

// ResumeFunc receives the decoded card pool for a fulfilled request
type ResumeFunc func(gameID string, purpose Purpose, pool []cards.Rank) error

// pendingRequest correlates an issued request back to its game
type pendingRequest struct {
	gameID  string
	purpose Purpose
}

// Gateway issues randomness requests against a subscription and
// matches the oracle's asynchronous fulfillment callbacks back to the
// originating game. Requests and responses are decoupled in time; the
// only state carried between them is the pending map.
type Gateway struct {
	mu       sync.Mutex
	sub      *Subscription
	consumer string
	cost     int64
	pending  map[string]pendingRequest
	resume   ResumeFunc
	logger   *log.Logger
}

// NewGateway creates a gateway drawing on sub as the given consumer id,
// paying cost credits per request.
func NewGateway(sub *Subscription, consumer string, cost int64, logger *log.Logger) *Gateway {
	return &Gateway{
		sub:      sub,
		consumer: consumer,
		cost:     cost,
		pending:  make(map[string]pendingRequest),
		logger:   logger.WithPrefix("gateway"),
	}
}

// SetResume registers the function invoked when a request is fulfilled.
// The engine registers itself here once at construction.
func (g *Gateway) SetResume(fn ResumeFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resume = fn
}

// Request pays for and records one randomness request, returning the
// correlation id the oracle will later fulfill. No entropy is returned
// here; the response arrives out-of-band via Fulfill.
func (g *Gateway) Request(gameID string, purpose Purpose) (string, error) {
	if err := g.sub.Consume(g.consumer, g.cost); err != nil {
		return "", err
	}

	id := requestid.New()
	g.mu.Lock()
	g.pending[id] = pendingRequest{gameID: gameID, purpose: purpose}
	g.mu.Unlock()

	g.logger.Debug("entropy requested", "request_id", id, "game_id", gameID, "purpose", purpose)
	return id, nil
}

// Fulfill is the oracle's callback entry point. An unknown or already
// consumed id is rejected with ErrUnknownRequest and no state changes.
// On success the pending entry is consumed, words[0] is decoded into a
// pool of 32 cards, and the game's resume function is invoked.
func (g *Gateway) Fulfill(id string, words []cards.Word) error {
	if len(words) == 0 {
		return ErrNoWords
	}

	g.mu.Lock()
	resume := g.resume
	if resume == nil {
		g.mu.Unlock()
		return ErrNoResume
	}
	req, ok := g.pending[id]
	if !ok {
		g.mu.Unlock()
		g.logger.Warn("rejected fulfillment", "request_id", id)
		return ErrUnknownRequest
	}
	delete(g.pending, id)
	g.mu.Unlock()

	g.logger.Debug("entropy fulfilled", "request_id", id, "game_id", req.gameID, "purpose", req.purpose)

	// Resume runs outside the gateway lock: the game will usually issue
	// its next request from inside the resume path.
	return resume(req.gameID, req.purpose, words[0].Cards())
}

// PendingIDs returns the correlation ids awaiting fulfillment
func (g *Gateway) PendingIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	return ids
}

// Pending returns the number of requests awaiting fulfillment
func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
