package commands

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/facets/internal/logfields"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Poll    time.Duration `help:"Also poll the metadata document at this interval"`
	Metrics string        `help:"Serve Prometheus metrics on this address" placeholder:"ADDR"`
	NATS    string        `name:"nats" help:"Publish changes to this NATS server" placeholder:"URL"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if c.Poll > 0 {
		cfg.Watch.PollInterval = c.Poll
	}
	if c.Metrics != "" {
		cfg.Monitoring.Metrics.Enabled = true
		cfg.Monitoring.Metrics.Address = c.Metrics
	}
	if c.NATS != "" {
		cfg.Notify.Enabled = true
		cfg.Notify.URL = c.NATS
	}
	a, err := root.openWith(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	g.Logger.InfoContext(ctx, "Watching faceted project",
		logfields.Project(a.Project.Name()),
		logfields.Path(a.MetadataFile()),
		slog.Bool("notify", cfg.Notify.Enabled),
		slog.Bool("metrics", cfg.Monitoring.Metrics.Enabled))
	return a.Run(ctx)
}
