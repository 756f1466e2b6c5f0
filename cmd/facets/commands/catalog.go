package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/facets/internal/app"
)

// CatalogCmd implements the 'catalog' command.
type CatalogCmd struct{}

type facetView struct {
	ID          string   `json:"id"`
	Label       string   `json:"label,omitempty"`
	Versions    []string `json:"versions"`
	Constraints []string `json:"constraints,omitempty"`
}

type runtimeView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label,omitempty"`
	Supports []string `json:"supports"`
}

func (c *CatalogCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cat, err := app.LoadCatalog(cfg)
	if err != nil {
		return err
	}

	var facets []facetView
	for _, f := range cat.Facets() {
		v := facetView{ID: f.ID(), Label: f.Label()}
		for _, fv := range f.Versions() {
			v.Versions = append(v.Versions, fv.Version())
			if con := fv.Constraint(); con != nil {
				v.Constraints = append(v.Constraints, fv.Version()+": "+con.String())
			}
		}
		facets = append(facets, v)
	}
	var runtimes []runtimeView
	for _, r := range cat.Runtimes() {
		v := runtimeView{Name: r.Name(), Label: r.Label()}
		for _, s := range r.Supported() {
			v.Supports = append(v.Supports, s.Facet+" "+s.Versions.String())
		}
		runtimes = append(runtimes, v)
	}

	if root.JSON {
		return printJSON(g.out(), map[string]any{"facets": facets, "runtimes": runtimes})
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FACET\tVERSIONS\tCONSTRAINTS")
	for _, f := range facets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, strings.Join(f.Versions, ", "), strings.Join(f.Constraints, "; "))
	}
	_, _ = fmt.Fprintln(tw, "\nRUNTIME\tSUPPORTS\t")
	for _, r := range runtimes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t\n", r.Name, strings.Join(r.Supports, ", "))
	}
	return tw.Flush()
}
