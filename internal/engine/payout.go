package engine

import "fmt"

// resolveOutcome compares final hand values. A player bust loses even
// if the dealer would also have busted; the player's hand is final
// first. Dealer bust with a live player hand pays the player; otherwise
// the higher value wins and equal values push.
func resolveOutcome(playerValue, dealerValue int) Outcome {
	switch {
	case playerValue > 21:
		return OutcomeDealerWin
	case dealerValue > 21:
		return OutcomePlayerWin
	case playerValue > dealerValue:
		return OutcomePlayerWin
	case dealerValue > playerValue:
		return OutcomeDealerWin
	default:
		return OutcomePush
	}
}

// settleLocked moves funds for the final outcome and marks the game
// settled. A win pays the escrowed wager back plus an equal amount from
// the house; a push returns the wager; a loss leaves the escrow with
// the house. Settling a settled game is a fatal invariant violation.
func (e *Engine) settleLocked(game *Game) error {
	if game.State == StateSettled {
		return ErrAlreadySettled
	}

	outcome := resolveOutcome(game.PlayerValue(), game.DealerValue())

	var payout int64
	switch outcome {
	case OutcomePlayerWin:
		payout = game.Wager * 2
	case OutcomePush:
		payout = game.Wager
	}

	if payout > 0 {
		if err := e.book.Transfer(e.account, game.Owner, payout); err != nil {
			// No partial effect: the game stays unsettled and the escrow
			// stays put. Standing again retries settlement once the house
			// can actually pay.
			return fmt.Errorf("paying out %d: %w", payout, err)
		}
	}

	game.Outcome = outcome
	game.State = StateSettled
	game.PendingID = ""
	delete(e.gamesByID, game.ID)

	e.logger.Info("game settled",
		"game_id", game.ID,
		"outcome", outcome,
		"player_hand", game.Player,
		"dealer_hand", game.Dealer,
		"player_value", game.PlayerValue(),
		"dealer_value", game.DealerValue(),
		"wager", game.Wager,
		"payout", payout)
	return nil
}
