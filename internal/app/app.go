// Package app wires configuration, catalog, project and the optional
// history, watch, notify and metrics components into one runnable unit.
package app

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/config"
	"git.home.luguber.info/inful/facets/internal/delegates"
	"git.home.luguber.info/inful/facets/internal/history"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/metadata"
	"git.home.luguber.info/inful/facets/internal/metrics"
	"git.home.luguber.info/inful/facets/internal/project"
)

// App holds the opened components. Close releases them.
type App struct {
	Config   *config.Config
	Catalog  *catalog.Static
	Project  *project.FacetedProject
	History  history.Store
	Registry *prom.Registry
	Logger   *slog.Logger

	closers []func() error
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.Slog()}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadCatalog reads the catalog descriptor named by cfg using the stock
// delegates and handlers.
func LoadCatalog(cfg *config.Config) (*catalog.Static, error) {
	return catalog.LoadFile(cfg.Catalog.Path, delegates.Bindings())
}

// Open loads the catalog and opens the project described by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Catalog:  cat,
		Registry: prom.NewRegistry(),
		Logger:   logger,
	}
	opts := []project.Option{
		project.WithLogger(logger),
		project.WithRecorder(metrics.NewPrometheusRecorder(a.Registry)),
	}
	if cfg.Project.Name != "" {
		opts = append(opts, project.WithName(cfg.Project.Name))
	}
	if cfg.Project.MetadataPath != "" {
		opts = append(opts, project.WithMetadataPath(cfg.Project.MetadataPath))
	}

	if cfg.History.Enabled {
		path := a.resolve(cfg.History.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, a.fail(err)
		}
		store, err := history.NewSQLiteStore(path)
		if err != nil {
			return nil, a.fail(err)
		}
		a.History = store
		a.closers = append(a.closers, store.Close)
		rec := history.NewRecorder(store, logger)
		for _, t := range history.Recorded {
			opts = append(opts, project.WithEventHandler(t, rec))
		}
		logger.DebugContext(ctx, "Recording facet history", logfields.Path(path))
	}

	p, err := project.Open(ctx, cfg.Project.Root, cat, opts...)
	if err != nil {
		return nil, a.fail(err)
	}
	a.Project = p
	return a, nil
}

// MetadataFile is the path of the project metadata document.
func (a *App) MetadataFile() string {
	return metadata.StorePath(a.Project.Root(), a.Config.Project.MetadataPath)
}

// Close releases every opened resource.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

func (a *App) fail(err error) error {
	_ = a.Close()
	return err
}

// resolve interprets a relative path against the project root.
func (a *App) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	root, err := filepath.Abs(a.Config.Project.Root)
	if err != nil {
		root = a.Config.Project.Root
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
