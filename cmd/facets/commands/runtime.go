package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/facets/internal/app"
)

// RuntimeCmd groups the runtime subcommands.
type RuntimeCmd struct {
	Add     RuntimeAddCmd     `cmd:"" help:"Target another runtime"`
	Remove  RuntimeRemoveCmd  `cmd:"" help:"Stop targeting a runtime"`
	Primary RuntimePrimaryCmd `cmd:"" help:"Choose the primary runtime"`
	Set     RuntimeSetCmd     `cmd:"" help:"Replace the targeted runtimes"`
}

type RuntimeAddCmd struct {
	Name string `arg:"" help:"runtime name"`
}

func (c *RuntimeAddCmd) Run(g *Global, root *CLI) error {
	return settings(g, root, func(ctx context.Context, a *app.App) error {
		return a.Project.AddTargetedRuntime(ctx, c.Name)
	})
}

type RuntimeRemoveCmd struct {
	Name string `arg:"" help:"runtime name"`
}

func (c *RuntimeRemoveCmd) Run(g *Global, root *CLI) error {
	return settings(g, root, func(ctx context.Context, a *app.App) error {
		return a.Project.RemoveTargetedRuntime(ctx, c.Name)
	})
}

type RuntimePrimaryCmd struct {
	Name string `arg:"" help:"a targeted runtime"`
}

func (c *RuntimePrimaryCmd) Run(g *Global, root *CLI) error {
	return settings(g, root, func(ctx context.Context, a *app.App) error {
		return a.Project.SetPrimaryRuntime(ctx, c.Name)
	})
}

type RuntimeSetCmd struct {
	Names []string `arg:"" optional:"" help:"runtime names; none clears the set"`
}

func (c *RuntimeSetCmd) Run(g *Global, root *CLI) error {
	return settings(g, root, func(ctx context.Context, a *app.App) error {
		return a.Project.SetTargetedRuntimes(ctx, c.Names)
	})
}

// FixedCmd implements the 'fixed' command.
type FixedCmd struct {
	Facets []string `arg:"" optional:"" help:"facet ids; none clears the set"`
}

func (c *FixedCmd) Run(g *Global, root *CLI) error {
	return settings(g, root, func(ctx context.Context, a *app.App) error {
		return a.Project.SetFixedFacets(ctx, c.Facets)
	})
}

func settings(g *Global, root *CLI, change func(context.Context, *app.App) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := change(ctx, a); err != nil {
		return err
	}
	snap := a.Project.Snapshot()
	if root.JSON {
		return printJSON(g.out(), snap)
	}
	primary := snap.Primary
	if primary == "" {
		primary = "-"
	}
	_, _ = fmt.Fprintf(g.out(), "runtimes: %s (primary %s)\nfixed: %s\n", orDash(snap.Runtimes), primary, orDash(snap.Fixed))
	return nil
}
