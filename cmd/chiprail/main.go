package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" default:"1" help:"Run the chiprail server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chiprail"),
		kong.Description("Chip coordinator for live hold'em played with physical cards"),
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
