package main

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/hackjack/internal/engine"
	"github.com/lox/hackjack/internal/entropy"
	"github.com/lox/hackjack/internal/ledger"
	"github.com/lox/hackjack/internal/server"
)

const (
	houseAccount = ledger.Account("hackjack:house")
	consumerID   = "hackjack:engine"
)

// ServeCmd runs the WebSocket game server
type ServeCmd struct {
	Addr   string `kong:"help='Override the configured listen address'"`
	Config string `kong:"default='hackjack.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := setupLogger(c.Debug)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	owner := ledger.Account(cfg.Engine.Owner)

	book := ledger.NewBook()
	if cfg.Engine.Bankroll > 0 {
		if err := book.Deposit(houseAccount, cfg.Engine.Bankroll); err != nil {
			return err
		}
	}

	sub := entropy.NewSubscription(cfg.Engine.Owner)
	if cfg.Engine.SubscriptionCredit > 0 {
		if err := sub.Fund(cfg.Engine.Owner, cfg.Engine.SubscriptionCredit); err != nil {
			return err
		}
	}
	if err := sub.AddConsumer(cfg.Engine.Owner, consumerID); err != nil {
		return err
	}

	gw := entropy.NewGateway(sub, consumerID, cfg.Engine.RequestCost, logger)

	eng := engine.New(engine.Config{
		BaseUnit:         cfg.Engine.BaseUnit,
		MinWager:         cfg.Engine.MinWager,
		MaxWagerMultiple: cfg.Engine.MaxWagerMultiple,
		DealerStand:      cfg.Engine.DealerStand,
	}, owner, houseAccount, book, gw, quartz.NewReal(), logger)

	svc := server.NewGameService(eng, sub, gw, logger)
	srv := server.NewServer(addr, svc, logger)

	logger.Info("starting hackjack server",
		"addr", addr,
		"owner", cfg.Engine.Owner,
		"base_unit", cfg.Engine.BaseUnit,
		"max_wager", cfg.Engine.BaseUnit*cfg.Engine.MaxWagerMultiple,
		"dealer_stand", cfg.Engine.DealerStand,
		"subscription_credit", cfg.Engine.SubscriptionCredit,
		"bankroll", cfg.Engine.Bankroll)

	ctx := signalContext(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	return g.Wait()
}
