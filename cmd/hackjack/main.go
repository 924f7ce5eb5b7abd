package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the game server"`
	Simulate SimulateCmd      `cmd:"" help:"Play games locally against a seeded pseudo-oracle"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hackjack"),
		kong.Description("VRF-backed blackjack engine with on-ledger settlement"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
