package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
)

// signalContext cancels on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// StatusCmd implements the 'status' command.
type StatusCmd struct{}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	snap := a.Project.Snapshot()
	if root.JSON {
		return printJSON(g.out(), snap)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Project:\t%s\n", snap.Name)
	_, _ = fmt.Fprintf(tw, "Root:\t%s\n", snap.Root)
	primary := snap.Primary
	if primary == "" {
		primary = "-"
	}
	_, _ = fmt.Fprintf(tw, "Primary runtime:\t%s\n", primary)
	_, _ = fmt.Fprintf(tw, "Targeted runtimes:\t%s\n", orDash(snap.Runtimes))
	_, _ = fmt.Fprintf(tw, "Fixed facets:\t%s\n", orDash(snap.Fixed))
	_, _ = fmt.Fprintln(tw, "Installed:")
	for _, ref := range snap.Installed {
		marker := ""
		if fv, ok := a.Project.InstalledVersion(ref.Facet); ok && fv.IsUnknown() {
			marker = "(not in catalog)"
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", ref.Facet, ref.Version, marker)
	}
	return tw.Flush()
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
