package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Eval     EvalCmd          `cmd:"" help:"Score a seven-card hand"`
	Shuffle  ShuffleCmd       `cmd:"" help:"Derive the public deck order from revealed secrets"`
	Simulate SimulateCmd      `cmd:"" help:"Play scripted hands against an in-memory ledger"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fairdeal"),
		kong.Description("Provably fair no-limit hold'em table engine"),
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
