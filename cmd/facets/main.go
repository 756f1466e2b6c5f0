package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/facets/cmd/facets/commands"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("facets"),
		kong.Description("Manage the facets installed on a project"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	err := parser.Run(cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
