package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/metrics"
	"git.home.luguber.info/inful/facets/internal/notify"
	"git.home.luguber.info/inful/facets/internal/retry"
	"git.home.luguber.info/inful/facets/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Run keeps the project in step with its metadata document until ctx is
// done. Depending on configuration it also polls, publishes changes to NATS
// and serves Prometheus metrics.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config

	w, err := watch.NewWatcher(a.MetadataFile(), a.Project,
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithWatcherLogger(a.Logger))
	if err != nil {
		return err
	}
	var poller *watch.Poller
	if cfg.Watch.PollInterval > 0 {
		if poller, err = watch.NewPoller(cfg.Watch.PollInterval, a.Project, a.Logger); err != nil {
			return err
		}
	}
	var pub *notify.Publisher
	if cfg.Notify.Enabled {
		conn, err := notify.ConnectWithRetry(ctx, cfg.Notify.URL, "facets-"+a.Project.Name(), retry.DefaultPolicy())
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Drain)
		pub = notify.NewPublisher(conn, a.Project, cfg.Notify.SubjectPrefix, a.Logger)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	if poller != nil {
		g.Go(func() error { return poller.Run(ctx) })
	}
	if pub != nil {
		id := a.Project.AddListener(pub)
		a.Logger.InfoContext(ctx, "Publishing project changes", logfields.Subject(pub.Subject()))
		g.Go(func() error {
			<-ctx.Done()
			a.Project.RemoveListener(id)
			return nil
		})
	}
	if cfg.Monitoring.Metrics.Enabled {
		a.serveMetrics(ctx, g)
	}

	// pick up edits made while the project was closed
	if _, err := a.Project.Refresh(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial refresh failed", logfields.Error(err))
	}
	return g.Wait()
}

func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group) {
	m := a.Config.Monitoring.Metrics
	mux := http.NewServeMux()
	mux.Handle(m.Path, metrics.HTTPHandler(a.Registry))
	srv := &http.Server{
		Addr:              m.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Serving metrics", slog.String("address", m.Address), logfields.Path(m.Path))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.NetworkError("metrics server failed").
				WithCause(err).
				WithContext("address", m.Address).
				Build()
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
}
