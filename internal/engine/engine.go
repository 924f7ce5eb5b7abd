// Package engine drives blackjack game sessions: it validates wagers,
// escrows funds on the settlement ledger, pauses games while entropy
// requests are in flight, and settles outcomes when the dealer is done.
// Every action and every fulfillment callback runs as one serialized
// step under the engine lock; an action either fully applies or leaves
// state exactly as it found it.
package engine

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/entropy"
	"github.com/lox/hackjack/internal/ledger"
	"github.com/lox/hackjack/internal/requestid"
)

// Engine owns every active game plus the engine-wide hand counter and
// house account. The hand counter starts at 1 and increments once per
// accepted deal; it is observational only.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	owner   ledger.Account
	account ledger.Account
	book    ledger.Ledger
	gateway *entropy.Gateway
	clock   quartz.Clock
	logger  *log.Logger

	games          map[ledger.Account]*Game
	gamesByID      map[string]*Game
	handCounter    uint64
	decommissioned bool
	notify         func(Game)
}

// SetNotify registers a callback invoked with a snapshot whenever a
// fulfillment advances a game. The callback runs under the engine lock
// and must not call back into the engine.
func (e *Engine) SetNotify(fn func(Game)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = fn
}

// New creates an engine holding funds in account, owned by owner, and
// registers itself as the gateway's resume target.
func New(cfg Config, owner, account ledger.Account, book ledger.Ledger, gateway *entropy.Gateway, clock quartz.Clock, logger *log.Logger) *Engine {
	e := &Engine{
		cfg:         cfg,
		owner:       owner,
		account:     account,
		book:        book,
		gateway:     gateway,
		clock:       clock,
		logger:      logger.WithPrefix("engine"),
		games:       make(map[ledger.Account]*Game),
		gamesByID:   make(map[string]*Game),
		handCounter: 1,
	}
	gateway.SetResume(e.resume)
	return e
}

// Deal starts a fresh game for player. The wager must fall inside the
// configured inclusive bounds and the player must not have a game in
// progress; a settled or aborted game is superseded. On acceptance the
// wager is escrowed, the opening entropy request is issued, and the
// game waits in AwaitingDeal for the oracle.
func (e *Engine) Deal(player ledger.Account, wager int64) (Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decommissioned {
		return Game{}, ErrDecommissioned
	}
	if wager < e.cfg.MinWager {
		return Game{}, ErrWagerTooSmall
	}
	if wager > e.cfg.MaxWager() {
		return Game{}, ErrWagerTooLarge
	}
	if prev := e.games[player]; prev != nil && prev.InProgress() {
		return Game{}, ErrGameInProgress
	}

	if err := e.book.Transfer(player, e.account, wager); err != nil {
		return Game{}, fmt.Errorf("escrowing wager: %w", err)
	}

	gameID := requestid.New()
	reqID, err := e.gateway.Request(gameID, entropy.PurposeDeal)
	if err != nil {
		// Undo the escrow so a rejected deal has no effect at all
		if refundErr := e.book.Transfer(e.account, player, wager); refundErr != nil {
			e.logger.Error("failed to refund escrow after rejected entropy request",
				"player", player, "wager", wager, "error", refundErr)
		}
		return Game{}, err
	}

	game := &Game{
		ID:        gameID,
		Owner:     player,
		Wager:     wager,
		State:     StateAwaitingDeal,
		Seq:       e.handCounter,
		PendingID: reqID,
		CreatedAt: e.clock.Now(),
	}
	e.handCounter++
	e.games[player] = game
	e.gamesByID[gameID] = game

	e.logger.Info("deal accepted",
		"game_id", gameID, "player", player, "wager", wager, "seq", game.Seq, "request_id", reqID)
	return game.snapshot(), nil
}

// Hit requests one more card for the player's own game. Valid only
// during the player's turn; the game pauses in AwaitingHit until the
// oracle answers.
func (e *Engine) Hit(player ledger.Account) (Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	game, err := e.activeGame(player)
	if err != nil {
		return Game{}, err
	}
	if game.State != StatePlayerTurn {
		return Game{}, ErrInvalidState
	}

	reqID, err := e.gateway.Request(game.ID, entropy.PurposeHit)
	if err != nil {
		return Game{}, err
	}
	game.State = StateAwaitingHit
	game.PendingID = reqID

	e.logger.Debug("hit requested", "game_id", game.ID, "player", player, "request_id", reqID)
	return game.snapshot(), nil
}

// Stand ends the player's turn and starts dealer resolution. It also
// restarts a game stalled in DealerResolution with no request in
// flight, which happens when a dealer draw or payout failed for lack of
// funds; once the shortfall is fixed, standing again picks the game up
// where it stopped.
func (e *Engine) Stand(player ledger.Account) (Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	game, err := e.activeGame(player)
	if err != nil {
		return Game{}, err
	}
	stalled := game.State == StateDealerResolution && game.PendingID == ""
	if game.State != StatePlayerTurn && !stalled {
		return Game{}, ErrInvalidState
	}

	e.logger.Debug("player stands", "game_id", game.ID, "player", player, "value", game.PlayerValue())
	if err := e.resolveDealerLocked(game); err != nil {
		return Game{}, err
	}
	return game.snapshot(), nil
}

// resume is the gateway's callback for fulfilled entropy requests. It
// is the only path allowed to advance a game out of an awaiting state.
func (e *Engine) resume(gameID string, purpose entropy.Purpose, pool []cards.Rank) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decommissioned {
		return ErrDecommissioned
	}
	game := e.gamesByID[gameID]
	if game == nil {
		return fmt.Errorf("%w: game %s", ErrNoActiveGame, gameID)
	}

	var err error
	switch purpose {
	case entropy.PurposeDeal:
		err = e.resumeDeal(game, pool)
	case entropy.PurposeHit:
		err = e.resumeHit(game, pool)
	case entropy.PurposeDealerDraw:
		err = e.resumeDealerDraw(game, pool)
	default:
		err = fmt.Errorf("engine: unknown request purpose %d", purpose)
	}
	if err == nil && e.notify != nil {
		e.notify(game.snapshot())
	}
	return err
}

// resumeDeal populates the opening hands from the decoded pool: player
// takes draws 0 and 2, dealer takes 1 and 3 (the second stays hidden
// until settlement). A natural two-card 21 ends the player's turn on
// the spot; the dealer still plays out and the hand settles by
// comparison.
func (e *Engine) resumeDeal(game *Game, pool []cards.Rank) error {
	if game.State != StateAwaitingDeal {
		return ErrInvalidState
	}
	if len(pool) < 4 {
		return fmt.Errorf("engine: deal needs 4 draws, pool has %d", len(pool))
	}

	game.PendingID = ""
	game.Player = cards.Hand{pool[0], pool[2]}
	game.Dealer = cards.Hand{pool[1], pool[3]}

	e.logger.Info("opening hands dealt",
		"game_id", game.ID, "player_hand", game.Player, "dealer_up", game.Dealer[0], "player_value", game.PlayerValue())

	if cards.IsNatural(game.Player) {
		// Enter DealerResolution before resolving so a failed draw or
		// payout leaves the game stalled there, where Stand restarts it.
		game.State = StateDealerResolution
		return e.resolveDealerLocked(game)
	}
	game.State = StatePlayerTurn
	return nil
}

// resumeHit appends the drawn card. A bust settles immediately with
// the dealer winning; otherwise play returns to the player.
func (e *Engine) resumeHit(game *Game, pool []cards.Rank) error {
	if game.State != StateAwaitingHit {
		return ErrInvalidState
	}
	if len(pool) < 1 {
		return fmt.Errorf("engine: hit needs a draw, pool is empty")
	}

	game.PendingID = ""
	game.Player = append(game.Player, pool[0])

	e.logger.Info("player drew",
		"game_id", game.ID, "card", pool[0], "player_hand", game.Player, "player_value", game.PlayerValue())

	if cards.IsBust(game.Player) {
		return e.settleLocked(game)
	}
	game.State = StatePlayerTurn
	return nil
}

// resumeDealerDraw appends the dealer's drawn card and continues the
// dealer's draw loop.
func (e *Engine) resumeDealerDraw(game *Game, pool []cards.Rank) error {
	if game.State != StateDealerResolution {
		return ErrInvalidState
	}
	if len(pool) < 1 {
		return fmt.Errorf("engine: dealer draw needs a draw, pool is empty")
	}

	game.PendingID = ""
	game.Dealer = append(game.Dealer, pool[0])

	e.logger.Info("dealer drew",
		"game_id", game.ID, "card", pool[0], "dealer_hand", game.Dealer, "dealer_value", game.DealerValue())

	return e.resolveDealerLocked(game)
}

// resolveDealerLocked runs the dealer's draw rule: draw until the hand
// reaches the stand value or busts. Each card costs one entropy
// round-trip, so the game can sit in DealerResolution across several
// fulfillments. On failure nothing is mutated, so the caller's state
// survives and the step can be retried once the blocking resource
// (subscription credit, house funds) is topped up.
func (e *Engine) resolveDealerLocked(game *Game) error {
	if game.DealerValue() < e.cfg.DealerStand {
		reqID, err := e.gateway.Request(game.ID, entropy.PurposeDealerDraw)
		if err != nil {
			e.logger.Error("dealer draw request failed", "game_id", game.ID, "error", err)
			return err
		}
		game.State = StateDealerResolution
		game.PendingID = reqID
		return nil
	}

	return e.settleLocked(game)
}

// activeGame returns the player's in-progress game
func (e *Engine) activeGame(player ledger.Account) (*Game, error) {
	if e.decommissioned {
		return nil, ErrDecommissioned
	}
	game := e.games[player]
	if game == nil || game.State.Terminal() {
		return nil, ErrNoActiveGame
	}
	return game, nil
}

// HandCounter returns the next deal's sequence number. It starts at 1
// and increments by exactly one per accepted deal, across all players.
func (e *Engine) HandCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handCounter
}

// GameFor returns a snapshot of the player's most recent game
func (e *Engine) GameFor(player ledger.Account) (Game, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	game := e.games[player]
	if game == nil {
		return Game{}, false
	}
	return game.snapshot(), true
}

// Withdraw transfers amount of the engine's held funds to recipient.
// Owner only.
func (e *Engine) Withdraw(caller, recipient ledger.Account, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decommissioned {
		return ErrDecommissioned
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.book.Transfer(e.account, recipient, amount); err != nil {
		return fmt.Errorf("withdrawing: %w", err)
	}
	e.logger.Info("withdrawal", "recipient", recipient, "amount", amount)
	return nil
}

// Decommission permanently shuts the engine down. The entire held
// balance is transferred to the owner first; if the balance cannot be
// brought to exactly zero the decommission fails rather than strand
// funds. Every action after a successful decommission is rejected.
func (e *Engine) Decommission(caller ledger.Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decommissioned {
		return ErrDecommissioned
	}
	if caller != e.owner {
		return ErrNotOwner
	}

	if balance := e.book.Balance(e.account); balance > 0 {
		if err := e.book.Transfer(e.account, e.owner, balance); err != nil {
			return fmt.Errorf("%w: %v", ErrDanglingBalance, err)
		}
	}
	if remaining := e.book.Balance(e.account); remaining != 0 {
		return fmt.Errorf("%w: %d remaining", ErrDanglingBalance, remaining)
	}

	// Unfinished games can never settle now; their escrow went to the
	// owner with the rest of the balance.
	aborted := 0
	for _, game := range e.games {
		if !game.State.Terminal() {
			game.State = StateAborted
			game.PendingID = ""
			delete(e.gamesByID, game.ID)
			aborted++
		}
	}

	e.decommissioned = true
	e.logger.Info("engine decommissioned", "owner", e.owner, "aborted_games", aborted)
	return nil
}

// Decommissioned reports whether the engine has been shut down
func (e *Engine) Decommissioned() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decommissioned
}

// Account returns the engine's house account
func (e *Engine) Account() ledger.Account {
	return e.account
}

// snapshot copies the game so callers outside the lock can't reach
// live state.
func (g *Game) snapshot() Game {
	out := *g
	out.Player = append(cards.Hand(nil), g.Player...)
	out.Dealer = append(cards.Hand(nil), g.Dealer...)
	return out
}
