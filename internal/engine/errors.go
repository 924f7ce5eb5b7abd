package engine

import "errors"

var (
	// ErrWagerTooSmall indicates the wager is below the configured minimum.
	ErrWagerTooSmall = errors.New("engine: wager below minimum")

	// ErrWagerTooLarge indicates the wager is above the configured maximum.
	ErrWagerTooLarge = errors.New("engine: wager above maximum")

	// ErrGameInProgress indicates the player already has an unfinished game.
	ErrGameInProgress = errors.New("engine: player already has a game in progress")

	// ErrNoActiveGame indicates the player has no game to act on.
	ErrNoActiveGame = errors.New("engine: no active game for player")

	// ErrInvalidState indicates the action is not valid in the game's
	// current state, including any action against a game paused in an
	// awaiting state.
	ErrInvalidState = errors.New("engine: action not valid in current game state")

	// ErrNotOwner indicates an administrative action by someone other
	// than the engine owner.
	ErrNotOwner = errors.New("engine: caller is not the engine owner")

	// ErrDecommissioned indicates the engine has been permanently shut
	// down and accepts no further actions.
	ErrDecommissioned = errors.New("engine: engine is decommissioned")

	// ErrAlreadySettled indicates an attempted double settlement. This
	// is a fatal invariant violation, never silently ignored.
	ErrAlreadySettled = errors.New("engine: game already settled")

	// ErrDanglingBalance indicates decommissioning could not bring the
	// engine's held balance to exactly zero. Funds must never be
	// silently stranded.
	ErrDanglingBalance = errors.New("engine: balance not zero after decommission transfer")
)
