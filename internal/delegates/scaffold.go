package delegates

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
			return false
		}
		return filepath.IsLocal(filepath.FromSlash(p))
	})
	return v
}

// ScaffoldConfig lists directories, relative to the project root, that a
// facet owns.
type ScaffoldConfig struct {
	Dirs []string `validate:"required,min=1,dive,required,relpath"`
}

// NewScaffoldConfig builds a ScaffoldConfig from the comma separated "dirs"
// action property.
func NewScaffoldConfig(props map[string]string) (any, error) {
	cfg := &ScaffoldConfig{}
	for d := range strings.SplitSeq(props["dirs"], ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.Dirs = append(cfg.Dirs, d)
		}
	}
	return cfg, nil
}

// Validate rejects empty lists and paths that escape the project root.
func (c *ScaffoldConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.ValidationError("invalid scaffold configuration").
			WithCause(err).
			WithContext("dirs", c.Dirs).
			Build()
	}
	return nil
}

func scaffoldConfig(cfg any) (*ScaffoldConfig, error) {
	sc, ok := cfg.(*ScaffoldConfig)
	if !ok || sc == nil {
		return nil, errors.ValidationError("scaffold delegate requires a scaffold configuration").
			WithContext("config_type", fmt.Sprintf("%T", cfg)).
			Build()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Scaffold creates the configured directories.
type Scaffold struct{}

func (Scaffold) Execute(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, cfg any) error {
	sc, err := scaffoldConfig(cfg)
	if err != nil {
		return err
	}
	for _, d := range sc.Dirs {
		path := filepath.Join(p.Root(), filepath.FromSlash(d))
		if err := os.MkdirAll(path, 0o750); err != nil {
			return errors.FileSystemError("failed to create facet directory").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		slog.DebugContext(ctx, "Created facet directory", logfields.Facet(fv.FacetID()), logfields.Path(path))
	}
	return nil
}

// Unscaffold removes the configured directories that are empty. Directories
// holding user content are left in place.
type Unscaffold struct{}

func (Unscaffold) Execute(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, cfg any) error {
	sc, err := scaffoldConfig(cfg)
	if err != nil {
		return err
	}
	dirs := slices.Clone(sc.Dirs)
	// deepest first so nested dirs empty their parents
	slices.SortFunc(dirs, func(a, b string) int {
		return strings.Count(filepath.ToSlash(b), "/") - strings.Count(filepath.ToSlash(a), "/")
	})
	for _, d := range dirs {
		path := filepath.Join(p.Root(), filepath.FromSlash(d))
		err := os.Remove(path)
		switch {
		case err == nil:
			slog.DebugContext(ctx, "Removed facet directory", logfields.Facet(fv.FacetID()), logfields.Path(path))
		case stderrors.Is(err, fs.ErrNotExist):
		case isNotEmpty(path):
			slog.InfoContext(ctx, "Keeping non-empty facet directory", logfields.Facet(fv.FacetID()), logfields.Path(path))
		default:
			return errors.FileSystemError("failed to remove facet directory").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}
	return nil
}

func isNotEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
