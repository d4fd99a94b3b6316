package main

import (
	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/chiprail/chiprail/internal/watch"
)

var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  string           `default:"http://localhost:8080" help:"Base URL of the chiprail server"`
	NoColor bool             `help:"Disable colored output"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chiprail-watch"),
		kong.Description("Terminal monitor for a running chiprail server"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	}

	p := tea.NewProgram(watch.NewModel(cli.Server))
	_, err := p.Run()
	ctx.FatalIfErrorf(err)
}
