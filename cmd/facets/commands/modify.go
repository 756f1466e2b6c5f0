package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/app"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// InstallCmd implements the 'install' command.
type InstallCmd struct {
	Facets []string `arg:"" help:"facet or facet@version" name:"facet"`
}

func (c *InstallCmd) Run(g *Global, root *CLI) error {
	return modify(g, root, func(a *app.App) ([]action.Action, error) {
		fvs, err := resolveRefs(a.Catalog, c.Facets)
		if err != nil {
			return nil, err
		}
		acts := make([]action.Action, 0, len(fvs))
		for _, fv := range fvs {
			acts = append(acts, action.Install(fv))
		}
		return acts, nil
	})
}

// UninstallCmd implements the 'uninstall' command.
type UninstallCmd struct {
	Facets []string `arg:"" help:"installed facet ids" name:"facet"`
}

func (c *UninstallCmd) Run(g *Global, root *CLI) error {
	return modify(g, root, func(a *app.App) ([]action.Action, error) {
		acts := make([]action.Action, 0, len(c.Facets))
		for _, id := range c.Facets {
			fv, ok := a.Project.InstalledVersion(id)
			if !ok {
				return nil, errors.NotFoundError(fmt.Sprintf("facet %q is not installed", id)).Build()
			}
			acts = append(acts, action.Uninstall(fv))
		}
		return acts, nil
	})
}

// ChangeCmd implements the 'change' command.
type ChangeCmd struct {
	Facets []string `arg:"" help:"facet@version to change to" name:"facet"`
}

func (c *ChangeCmd) Run(g *Global, root *CLI) error {
	return modify(g, root, func(a *app.App) ([]action.Action, error) {
		fvs, err := resolveRefs(a.Catalog, c.Facets)
		if err != nil {
			return nil, err
		}
		acts := make([]action.Action, 0, len(fvs))
		for _, fv := range fvs {
			acts = append(acts, action.VersionChange(fv))
		}
		return acts, nil
	})
}

func modify(g *Global, root *CLI, plan func(*app.App) ([]action.Action, error)) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	acts, err := plan(a)
	if err != nil {
		return err
	}
	if err := a.Project.Modify(ctx, acts...); err != nil {
		return err
	}
	return report(ctx, g, root, a)
}

// ApplyCmd implements the 'apply' command.
type ApplyCmd struct {
	Facets []string `arg:"" optional:"" help:"the complete desired set, facet or facet@version" name:"facet"`
}

func (c *ApplyCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	desired, err := resolveRefs(a.Catalog, c.Facets)
	if err != nil {
		return err
	}
	if err := a.Project.Apply(ctx, desired); err != nil {
		return err
	}
	return report(ctx, g, root, a)
}

func report(_ context.Context, g *Global, root *CLI, a *app.App) error {
	snap := a.Project.Snapshot()
	if root.JSON {
		return printJSON(g.out(), snap)
	}
	for _, ref := range snap.Installed {
		_, _ = fmt.Fprintln(g.out(), ref.String())
	}
	return nil
}
