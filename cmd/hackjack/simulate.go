package main

import (
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/hackjack/internal/engine"
	"github.com/lox/hackjack/internal/entropy"
	"github.com/lox/hackjack/internal/ledger"
	"github.com/lox/hackjack/internal/oracle"
)

// SimulateCmd plays games against an in-process pseudo-oracle. It is
// the quickest way to exercise the full deal/hit/stand/settle path and
// eyeball the house edge without any external oracle.
type SimulateCmd struct {
	Games    int   `kong:"default='1000',help='Number of games to play'"`
	Wager    int64 `kong:"default='100',help='Wager per game'"`
	HitBelow int   `kong:"default='17',help='Player hits below this hand value'"`
	Seed     int64 `kong:"default='0',help='Oracle seed (0 for time-based)'"`
	Debug    bool  `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := setupLogger(c.Debug)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("simulating", "games", c.Games, "wager", c.Wager, "hit_below", c.HitBelow, "seed", seed)

	const player = ledger.Account("sim:player")

	bankroll := int64(c.Games) * c.Wager * 2
	book := ledger.NewBook()
	if err := book.Deposit(houseAccount, bankroll); err != nil {
		return err
	}
	if err := book.Deposit(player, int64(c.Games)*c.Wager); err != nil {
		return err
	}

	sub := entropy.NewSubscription("sim:admin")
	// Worst case a game needs a handful of draws; fund generously
	if err := sub.Fund("sim:admin", int64(c.Games)*16); err != nil {
		return err
	}
	if err := sub.AddConsumer("sim:admin", consumerID); err != nil {
		return err
	}

	gw := entropy.NewGateway(sub, consumerID, 1, logger)

	cfg := engine.DefaultConfig()
	cfg.MaxWagerMultiple = cfg.MaxWagerMultiple * 10 // simulation is not wager-bound
	eng := engine.New(cfg, "sim:owner", houseAccount, book, gw, quartz.NewReal(), logger)
	orc := oracle.New(gw, seed, logger)

	var wins, losses, pushes int
	start := time.Now()

	for i := 0; i < c.Games; i++ {
		if _, err := eng.Deal(player, c.Wager); err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}

		for {
			if _, err := orc.Pump(); err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}

			game, ok := eng.GameFor(player)
			if !ok {
				return fmt.Errorf("game %d: engine lost the game", i+1)
			}
			if game.State == engine.StateSettled {
				switch game.Outcome {
				case engine.OutcomePlayerWin:
					wins++
				case engine.OutcomeDealerWin:
					losses++
				case engine.OutcomePush:
					pushes++
				}
				break
			}

			var err error
			if game.PlayerValue() < c.HitBelow {
				_, err = eng.Hit(player)
			} else {
				_, err = eng.Stand(player)
			}
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
		}
	}

	elapsed := time.Since(start)
	net := book.Balance(player) - int64(c.Games)*c.Wager
	logger.Info("simulation complete",
		"games", c.Games,
		"wins", wins,
		"losses", losses,
		"pushes", pushes,
		"player_net", net,
		"house_edge_pct", fmt.Sprintf("%.2f", -float64(net)/float64(int64(c.Games)*c.Wager)*100),
		"elapsed", elapsed,
		"games_per_sec", fmt.Sprintf("%.0f", float64(c.Games)/elapsed.Seconds()))

	return nil
}
