package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit     int    `short:"n" help:"Number of entries to read" default:"50"`
	Operation string `help:"Show the entries of one operation"`
	Replay    bool   `help:"Print the installed set reconstructed from history"`
}

func (c *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := root.open(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if a.History == nil {
		return errors.ConfigError("history is not enabled in the configuration").Build()
	}

	var entries []history.Entry
	if c.Operation != "" {
		entries, err = a.History.ByOperation(ctx, c.Operation)
	} else {
		entries, err = a.History.Recent(ctx, a.Project.Name(), c.Limit)
		// oldest first for summaries and replay
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if err != nil {
		return err
	}

	if c.Replay {
		installed := history.Replay(entries)
		if root.JSON {
			return printJSON(g.out(), installed)
		}
		for facet, version := range installed {
			_, _ = fmt.Fprintf(g.out(), "%s@%s\n", facet, version)
		}
		return nil
	}

	sums := history.Summarize(entries)
	if root.JSON {
		return printJSON(g.out(), sums)
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tOPERATION\tCHANGES")
	for _, s := range sums {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.StartedAt.Format(time.RFC3339), s.OperationID, describe(s))
	}
	return tw.Flush()
}

func describe(s history.OperationSummary) string {
	var parts []string
	for _, r := range s.Installed {
		parts = append(parts, "+"+r.String())
	}
	for _, r := range s.Uninstalled {
		parts = append(parts, "-"+r.String())
	}
	for _, r := range s.Changed {
		parts = append(parts, "~"+r.String())
	}
	for _, t := range s.Settings {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, " ")
}
