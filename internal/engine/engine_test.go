package engine

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/entropy"
	"github.com/lox/hackjack/internal/ledger"
)

const (
	alice = ledger.Account("alice")
	bob   = ledger.Account("bob")
	owner = ledger.Account("owner")
	house = ledger.Account("house")
)

type fixture struct {
	book *ledger.Book
	sub  *entropy.Subscription
	gw   *entropy.Gateway
	eng  *Engine
}

func newFixture(t *testing.T, credit int64) *fixture {
	t.Helper()
	logger := log.New(io.Discard)

	book := ledger.NewBook()
	require.NoError(t, book.Deposit(house, 100_000))
	require.NoError(t, book.Deposit(alice, 10_000))
	require.NoError(t, book.Deposit(bob, 10_000))

	sub := entropy.NewSubscription("admin")
	if credit > 0 {
		require.NoError(t, sub.Fund("admin", credit))
	}
	require.NoError(t, sub.AddConsumer("admin", "engine-1"))

	gw := entropy.NewGateway(sub, "engine-1", 1, logger)

	cfg := Config{BaseUnit: 100, MinWager: 10, MaxWagerMultiple: 10, DealerStand: 17}
	eng := New(cfg, owner, house, book, gw, quartz.NewMock(t), logger)

	return &fixture{book: book, sub: sub, gw: gw, eng: eng}
}

// fulfillNext answers the single in-flight request with a word whose
// leading bytes are given; trailing bytes are zero (aces). Byte values
// below 13 map to the rank of the same index, so draws read literally.
func (f *fixture) fulfillNext(t *testing.T, draws ...byte) {
	t.Helper()
	ids := f.gw.PendingIDs()
	require.Len(t, ids, 1, "expected exactly one pending request")
	var w cards.Word
	copy(w[:], draws)
	require.NoError(t, f.gw.Fulfill(ids[0], []cards.Word{w}))
}

func TestDealValidatesWagerBounds(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 9)
	assert.ErrorIs(t, err, ErrWagerTooSmall)

	_, err = f.eng.Deal(alice, 1001)
	assert.ErrorIs(t, err, ErrWagerTooLarge)

	// A rejected wager leaves the counter and the balances untouched
	assert.Equal(t, uint64(1), f.eng.HandCounter())
	assert.Equal(t, int64(10_000), f.book.Balance(alice))
	assert.Equal(t, int64(100_000), f.book.Balance(house))
}

func TestDealEscrowsWagerAndAwaitsEntropy(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	game, err := f.eng.Deal(alice, 500)
	require.NoError(t, err)

	assert.Equal(t, StateAwaitingDeal, game.State)
	assert.NotEmpty(t, game.PendingID)
	assert.Equal(t, uint64(1), game.Seq)
	assert.Equal(t, int64(9_500), f.book.Balance(alice))
	assert.Equal(t, int64(100_500), f.book.Balance(house))
	assert.Equal(t, uint64(2), f.eng.HandCounter())
}

func TestDealRejectsConcurrentGame(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)

	_, err = f.eng.Deal(alice, 100)
	assert.ErrorIs(t, err, ErrGameInProgress)
	assert.Equal(t, uint64(2), f.eng.HandCounter())
}

func TestDealSupersedesSettledGame(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 9, 9, 9) // player 20 vs dealer 20

	_, err = f.eng.Stand(alice)
	require.NoError(t, err)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	require.Equal(t, StateSettled, game.State)

	next, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	assert.NotEqual(t, game.ID, next.ID)
	assert.Equal(t, game.Seq+1, next.Seq)
}

func TestHandCounterIncrementsAcrossPlayers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	require.Equal(t, uint64(1), f.eng.HandCounter())

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	_, err = f.eng.Deal(bob, 100)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), f.eng.HandCounter())
}

func TestOpeningDealEntersPlayerTurn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)

	// Pool order is player, dealer, player, dealer
	f.fulfillNext(t, 9, 6, 8, 9)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StatePlayerTurn, game.State)
	assert.Equal(t, cards.Hand{cards.Ten, cards.Nine}, game.Player)
	assert.Equal(t, cards.Hand{cards.Seven, cards.Ten}, game.Dealer)
	assert.Equal(t, 19, game.PlayerValue())
	assert.Equal(t, 17, game.DealerValue())
}

func TestStandSettlesWhenDealerAlreadyStands(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 6, 8, 9) // player 19, dealer 17

	game, err := f.eng.Stand(alice)
	require.NoError(t, err)

	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)

	// Win pays the wager back plus the same again from the house
	assert.Equal(t, int64(10_100), f.book.Balance(alice))
	assert.Equal(t, int64(99_900), f.book.Balance(house))
}

func TestHitBustSettlesForDealer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 9, 9, 9) // player 20, dealer 20

	game, err := f.eng.Hit(alice)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingHit, game.State)

	f.fulfillNext(t, 9) // third ten busts the player

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomeDealerWin, game.Outcome)
	assert.Equal(t, 30, game.PlayerValue())

	// Escrow stays with the house
	assert.Equal(t, int64(9_900), f.book.Balance(alice))
	assert.Equal(t, int64(100_100), f.book.Balance(house))
}

func TestHitBelow21ReturnsToPlayerTurn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 1, 9, 2, 9) // player 2+3=5, dealer 20

	_, err = f.eng.Hit(alice)
	require.NoError(t, err)
	f.fulfillNext(t, 4) // draw a five

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StatePlayerTurn, game.State)
	assert.Equal(t, 10, game.PlayerValue())
}

func TestPushReturnsWager(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 250)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 9, 9, 9) // both 20

	game, err := f.eng.Stand(alice)
	require.NoError(t, err)

	assert.Equal(t, OutcomePush, game.Outcome)
	assert.Equal(t, int64(10_000), f.book.Balance(alice))
	assert.Equal(t, int64(100_000), f.book.Balance(house))
}

func TestDealerDrawsAcrossMultipleFulfillments(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 1, 8, 2) // player 19, dealer 2+3=5

	game, err := f.eng.Stand(alice)
	require.NoError(t, err)
	assert.Equal(t, StateDealerResolution, game.State)
	assert.NotEmpty(t, game.PendingID)

	f.fulfillNext(t, 9) // dealer 15, still below the stand value
	game, _ = f.eng.GameFor(alice)
	assert.Equal(t, StateDealerResolution, game.State)
	assert.NotEmpty(t, game.PendingID)

	f.fulfillNext(t, 9) // dealer 25, bust
	game, _ = f.eng.GameFor(alice)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
	assert.Equal(t, 25, game.DealerValue())
}

func TestNaturalEndsPlayerTurnImmediately(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)

	// Player draws ace and ten: a natural. The dealer's 17 stands, so
	// the hand settles on the opening fulfillment without any player
	// action.
	f.fulfillNext(t, 0, 9, 9, 6)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
	assert.Equal(t, 21, game.PlayerValue())
	assert.Equal(t, int64(10_100), f.book.Balance(alice))
}

func TestReplayedFulfillmentHasNoEffect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)

	ids := f.gw.PendingIDs()
	require.Len(t, ids, 1)

	var w cards.Word
	copy(w[:], []byte{9, 6, 8, 9})
	require.NoError(t, f.gw.Fulfill(ids[0], []cards.Word{w}))

	before, _ := f.eng.GameFor(alice)

	// Replaying the same correlation id is rejected and changes nothing
	err = f.gw.Fulfill(ids[0], []cards.Word{w})
	assert.ErrorIs(t, err, entropy.ErrUnknownRequest)

	after, _ := f.eng.GameFor(alice)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Player, after.Player)
	assert.Equal(t, before.Dealer, after.Dealer)
}

func TestActionsRejectedWhileAwaitingEntropy(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)

	// Only the matching fulfillment may advance an awaiting game
	_, err = f.eng.Hit(alice)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.eng.Stand(alice)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestActionsRequireActiveGame(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Hit(alice)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, err = f.eng.Stand(alice)
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestDealRefundsEscrowWhenCreditExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0) // no subscription credit at all

	_, err := f.eng.Deal(alice, 100)
	assert.ErrorIs(t, err, entropy.ErrInsufficientCredit)

	// The escrow was unwound; caller may fund the subscription and retry
	assert.Equal(t, int64(10_000), f.book.Balance(alice))
	assert.Equal(t, int64(100_000), f.book.Balance(house))
	assert.Equal(t, uint64(1), f.eng.HandCounter())
}

func TestStandRetriesAfterCreditExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1) // exactly one request's worth of credit

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 1, 8, 2) // player 19, dealer 2+3=5

	// The dealer needs a card but the subscription is empty. The stand
	// is rejected and the game is exactly as it was before.
	_, err = f.eng.Stand(alice)
	require.ErrorIs(t, err, entropy.ErrInsufficientCredit)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StatePlayerTurn, game.State)
	assert.Empty(t, game.PendingID)

	// Funding the subscription makes the retry succeed
	require.NoError(t, f.sub.Fund("admin", 10))
	game, err = f.eng.Stand(alice)
	require.NoError(t, err)
	assert.Equal(t, StateDealerResolution, game.State)
	assert.NotEmpty(t, game.PendingID)

	f.fulfillNext(t, 9) // dealer 15
	f.fulfillNext(t, 9) // dealer 25, bust
	game, _ = f.eng.GameFor(alice)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
	assert.Equal(t, int64(10_100), f.book.Balance(alice))
}

func TestStalledDealerDrawRecoversViaStand(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2) // covers the deal and the first dealer draw

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 1, 8, 2) // player 19, dealer 5

	_, err = f.eng.Stand(alice)
	require.NoError(t, err)

	// The draw lands but the next one can't be paid for; the fulfillment
	// reports the failure and the game stalls with no request in flight.
	ids := f.gw.PendingIDs()
	require.Len(t, ids, 1)
	var w cards.Word
	w[0] = 9
	err = f.gw.Fulfill(ids[0], []cards.Word{w})
	require.ErrorIs(t, err, entropy.ErrInsufficientCredit)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StateDealerResolution, game.State)
	assert.Empty(t, game.PendingID)
	assert.Equal(t, 15, game.DealerValue())

	// Standing again after funding restarts the dealer's draw loop
	require.NoError(t, f.sub.Fund("admin", 10))
	game, err = f.eng.Stand(alice)
	require.NoError(t, err)
	assert.NotEmpty(t, game.PendingID)

	f.fulfillNext(t, 9) // dealer 25, bust
	game, _ = f.eng.GameFor(alice)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
}

// insolventFixture is a fixture whose house can cover the escrow but
// not a winning payout.
func insolventFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard)

	book := ledger.NewBook()
	require.NoError(t, book.Deposit(house, 50))
	require.NoError(t, book.Deposit(alice, 10_000))

	sub := entropy.NewSubscription("admin")
	require.NoError(t, sub.Fund("admin", 100))
	require.NoError(t, sub.AddConsumer("admin", "engine-1"))
	gw := entropy.NewGateway(sub, "engine-1", 1, logger)

	cfg := Config{BaseUnit: 100, MinWager: 10, MaxWagerMultiple: 10, DealerStand: 17}
	eng := New(cfg, owner, house, book, gw, quartz.NewMock(t), logger)

	return &fixture{book: book, sub: sub, gw: gw, eng: eng}
}

func TestStandRetriesWhenHouseCannotPay(t *testing.T) {
	t.Parallel()
	f := insolventFixture(t)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 6, 8, 9) // player 19, dealer 17

	// The winning payout exceeds the house balance, so the stand is
	// rejected without touching the game.
	_, err = f.eng.Stand(alice)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StatePlayerTurn, game.State)
	assert.Equal(t, int64(9_900), f.book.Balance(alice))

	require.NoError(t, f.book.Deposit(house, 10_000))
	game, err = f.eng.Stand(alice)
	require.NoError(t, err)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
	assert.Equal(t, int64(10_100), f.book.Balance(alice))
}

func TestStalledSettlementRecoversViaStand(t *testing.T) {
	t.Parallel()
	f := insolventFixture(t)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	f.fulfillNext(t, 9, 1, 8, 2) // player 19, dealer 5

	_, err = f.eng.Stand(alice)
	require.NoError(t, err)
	f.fulfillNext(t, 9) // dealer 15, draws again

	// The bust card arrives but the house can't pay the win; the game
	// stalls in DealerResolution instead of settling.
	ids := f.gw.PendingIDs()
	require.Len(t, ids, 1)
	var w cards.Word
	w[0] = 9
	err = f.gw.Fulfill(ids[0], []cards.Word{w})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StateDealerResolution, game.State)
	assert.Empty(t, game.PendingID)
	assert.Equal(t, 25, game.DealerValue())

	// Once the house is solvent, standing settles the finished hand
	require.NoError(t, f.book.Deposit(house, 10_000))
	game, err = f.eng.Stand(alice)
	require.NoError(t, err)
	assert.Equal(t, StateSettled, game.State)
	assert.Equal(t, OutcomePlayerWin, game.Outcome)
	assert.Equal(t, int64(10_100), f.book.Balance(alice))
}

func TestWithdrawOwnerOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	err := f.eng.Withdraw(alice, alice, 1000)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.eng.Withdraw(owner, bob, 1000))
	assert.Equal(t, int64(99_000), f.book.Balance(house))
	assert.Equal(t, int64(11_000), f.book.Balance(bob))
}

func TestDecommissionDrainsBalanceExactly(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	err := f.eng.Decommission(alice)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.eng.Decommission(owner))

	assert.Equal(t, int64(0), f.book.Balance(house))
	assert.Equal(t, int64(100_000), f.book.Balance(owner))
	assert.True(t, f.eng.Decommissioned())

	// Everything afterwards is rejected
	_, err = f.eng.Deal(alice, 100)
	assert.ErrorIs(t, err, ErrDecommissioned)
	_, err = f.eng.Hit(alice)
	assert.ErrorIs(t, err, ErrDecommissioned)
	err = f.eng.Withdraw(owner, owner, 1)
	assert.ErrorIs(t, err, ErrDecommissioned)
	err = f.eng.Decommission(owner)
	assert.ErrorIs(t, err, ErrDecommissioned)
}

func TestDecommissionAbortsInProgressGames(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 100)

	_, err := f.eng.Deal(alice, 100)
	require.NoError(t, err)
	pending := f.gw.PendingIDs()
	require.Len(t, pending, 1)

	require.NoError(t, f.eng.Decommission(owner))

	game, ok := f.eng.GameFor(alice)
	require.True(t, ok)
	assert.Equal(t, StateAborted, game.State)
	assert.Empty(t, game.PendingID)

	// A late fulfillment for the orphaned request cannot revive the game
	var w cards.Word
	copy(w[:], []byte{9, 6, 8, 9})
	err = f.gw.Fulfill(pending[0], []cards.Word{w})
	assert.ErrorIs(t, err, ErrDecommissioned)
}
