package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/facets/internal/app"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/config"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// defaultConfigFile is used when --config is not given and the file exists.
const defaultConfigFile = "facets.yaml"

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" env:"FACETS_CONFIG" type:"path"`
	Root    string           `short:"C" help:"Project root, overrides the configuration" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	JSON    bool             `help:"Print machine readable JSON"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	CatalogPath string `name:"catalog" help:"Catalog descriptor, overrides the configuration" type:"path"`

	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
	Status    StatusCmd    `cmd:"" help:"Show installed facets, runtimes and fixed facets"`
	Install   InstallCmd   `cmd:"" help:"Install facets (facet or facet@version)"`
	Uninstall UninstallCmd `cmd:"" help:"Uninstall facets"`
	Change    ChangeCmd    `cmd:"" help:"Change installed facets to another version"`
	Apply     ApplyCmd     `cmd:"" help:"Make the installed set exactly the given facet versions"`
	Validate  ValidateCmd  `cmd:"" help:"Check the project, and optionally planned installs, against the catalog"`
	Runtime   RuntimeCmd   `cmd:"" help:"Manage targeted runtimes"`
	Fixed     FixedCmd     `cmd:"" help:"Set the facets that may not be removed or changed"`
	History   HistoryCmd   `cmd:"" help:"Show recorded facet transitions"`
	Watch     WatchCmd     `cmd:"" help:"Follow external edits, publish changes and serve metrics"`
	Catalog   CatalogCmd   `cmd:"" help:"List the facets and runtimes of the catalog"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig loads the configuration and applies the command line overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.Config
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.Root != "" {
		cfg.Project.Root = c.Root
	}
	if c.CatalogPath != "" {
		cfg.Catalog.Path = c.CatalogPath
	}
	return cfg, nil
}

// open loads configuration and opens the project.
func (c *CLI) open(ctx context.Context, g *Global) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.openWith(ctx, g, cfg)
}

// openWith opens the project described by cfg. The logger follows the
// configuration unless --verbose was given.
func (c *CLI) openWith(ctx context.Context, g *Global, cfg *config.Config) (*app.App, error) {
	if !c.Verbose {
		g.Logger = app.NewLogger(cfg.Monitoring.Logging, os.Stderr)
		slog.SetDefault(g.Logger)
	}
	return app.Open(ctx, cfg, g.Logger)
}

// resolveRef accepts facet@version, or a bare facet id for its latest version.
func resolveRef(cat catalog.Catalog, s string) (*catalog.FacetVersion, error) {
	if !strings.Contains(s, "@") {
		f, ok := cat.Facet(strings.TrimSpace(s))
		if !ok {
			return nil, errors.NotFoundError(fmt.Sprintf("facet %q is not defined", s)).Build()
		}
		latest := f.Latest()
		if latest == nil {
			return nil, errors.NotFoundError(fmt.Sprintf("facet %q has no versions", s)).Build()
		}
		return latest, nil
	}
	ref, err := catalog.ParseRef(s)
	if err != nil {
		return nil, err
	}
	return catalog.Lookup(cat, ref)
}

func resolveRefs(cat catalog.Catalog, args []string) ([]*catalog.FacetVersion, error) {
	out := make([]*catalog.FacetVersion, 0, len(args))
	for _, a := range args {
		fv, err := resolveRef(cat, a)
		if err != nil {
			return nil, err
		}
		out = append(out, fv)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.InternalError("failed to encode output").WithCause(err).Build()
	}
	return nil
}
