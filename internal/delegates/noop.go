package delegates

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Noop records the transition in the project metadata without touching the
// project tree.
type Noop struct{}

func (Noop) Execute(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, _ any) error {
	slog.DebugContext(ctx, "No-op delegate", logfields.Project(p.Name()), logfields.Facet(fv.FacetID()), logfields.Version(fv.Version()))
	return nil
}

// LogHandler logs every event it receives at info level.
type LogHandler struct {
	Logger *slog.Logger
}

func (h LogHandler) HandleEvent(ctx context.Context, ev catalog.Event) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{logfields.EventType(string(ev.Type)), logfields.OperationID(ev.OperationID)}
	if ev.Project != nil {
		attrs = append(attrs, logfields.Project(ev.Project.Name()))
	}
	if ev.Version != nil {
		attrs = append(attrs, logfields.Facet(ev.Version.FacetID()), logfields.Version(ev.Version.Version()))
	}
	if ev.Type == catalog.EventRuntimeChanged {
		attrs = append(attrs, slog.String("old_primary", ev.OldPrimary), slog.String("new_primary", ev.NewPrimary))
	}
	logger.InfoContext(ctx, "Facet event", attrs...)
	return nil
}

// Bindings returns the names descriptors use for the stock implementations.
func Bindings() catalog.Bindings {
	return catalog.Bindings{
		Delegates: map[string]catalog.Delegate{
			"noop":       Noop{},
			"scaffold":   Scaffold{},
			"unscaffold": Unscaffold{},
		},
		Handlers: map[string]catalog.EventHandler{
			"log": LogHandler{},
		},
		ConfigFactories: map[string]catalog.ConfigFactory{
			"scaffold": NewScaffoldConfig,
		},
	}
}
