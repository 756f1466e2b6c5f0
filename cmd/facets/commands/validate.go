package commands

import (
	"fmt"

	"git.home.luguber.info/inful/facets/internal/action"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Install []string `help:"Also check installing these facets" placeholder:"FACET[@VERSION]"`
}

type problemView struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Facets   []string `json:"facets,omitempty"`
}

func (c *ValidateCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	fvs, err := resolveRefs(a.Catalog, c.Install)
	if err != nil {
		return err
	}
	acts := make([]action.Action, 0, len(fvs))
	for _, fv := range fvs {
		acts = append(acts, action.Install(fv))
	}
	res := a.Project.Check(acts...)

	views := make([]problemView, 0, len(res.Problems))
	for _, p := range res.Problems {
		v := problemView{Severity: string(p.Severity), Code: p.Code, Message: p.Message}
		for _, fv := range p.Versions {
			v.Facets = append(v.Facets, fv.String())
		}
		views = append(views, v)
	}
	if root.JSON {
		if err := printJSON(g.out(), views); err != nil {
			return err
		}
	} else {
		for _, v := range views {
			_, _ = fmt.Fprintf(g.out(), "%-7s %-26s %s\n", v.Severity, v.Code, v.Message)
		}
		if len(views) == 0 {
			_, _ = fmt.Fprintln(g.out(), "ok")
		}
	}
	return res.Err()
}
