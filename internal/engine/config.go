package engine

// Config carries the wagering and dealer rules for an engine instance
type Config struct {
	// BaseUnit is the smallest wager denomination. The minimum and
	// maximum wager are expressed in terms of it.
	BaseUnit int64

	// MinWager is the smallest acceptable wager, inclusive
	MinWager int64

	// MaxWagerMultiple caps wagers at MaxWagerMultiple * BaseUnit, inclusive
	MaxWagerMultiple int64

	// DealerStand is the hand value at which the dealer stops drawing
	DealerStand int
}

// DefaultConfig returns the rules used when none are configured
func DefaultConfig() Config {
	return Config{
		BaseUnit:         1000,
		MinWager:         1,
		MaxWagerMultiple: 10,
		DealerStand:      17,
	}
}

// MaxWager returns the largest acceptable wager, inclusive
func (c Config) MaxWager() int64 {
	return c.BaseUnit * c.MaxWagerMultiple
}
