package main

import (
	"github.com/alecthomas/kong"

	"github.com/quietpress/quill/cmd/quill/commands"
	"github.com/quietpress/quill/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("quill"),
		kong.Description("Static blog compiler: markdown in, a publishable site out."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
