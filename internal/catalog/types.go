package catalog

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// ActionKind identifies a facet transition.
type ActionKind string

const (
	ActionInstall       ActionKind = "install"
	ActionUninstall     ActionKind = "uninstall"
	ActionVersionChange ActionKind = "version-change"
)

// Rank orders kinds for deterministic execution: uninstall, version change, install.
func (k ActionKind) Rank() int {
	switch k {
	case ActionUninstall:
		return 0
	case ActionVersionChange:
		return 1
	case ActionInstall:
		return 2
	default:
		return 3
	}
}

// Valid reports whether k is one of the known kinds.
func (k ActionKind) Valid() bool { return k.Rank() < 3 }

// Ref is the value identity of a facet version.
type Ref struct {
	Facet   string `json:"facet"`
	Version string `json:"version"`
}

func (r Ref) String() string { return r.Facet + "@" + r.Version }

// ParseRef parses "facet@version".
func ParseRef(s string) (Ref, error) {
	id, ver, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || id == "" || ver == "" {
		return Ref{}, errors.ValidationError(fmt.Sprintf("invalid facet reference %q, expected facet@version", s)).Build()
	}
	return Ref{Facet: id, Version: ver}, nil
}

// Project is the read-only view of a faceted project handed to delegates
// and event handlers.
type Project interface {
	Name() string
	Root() string
	InstalledVersion(facetID string) (*FacetVersion, bool)
	TargetedRuntimes() []string
	PrimaryRuntime() (string, bool)
}

// Delegate performs the side effect of one facet transition.
type Delegate interface {
	Execute(ctx context.Context, p Project, fv *FacetVersion, config any) error
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(ctx context.Context, p Project, fv *FacetVersion, config any) error

func (f DelegateFunc) Execute(ctx context.Context, p Project, fv *FacetVersion, config any) error {
	return f(ctx, p, fv, config)
}

// ConfigFactory builds the default configuration payload of an action from
// the properties declared on its action definition.
type ConfigFactory func(properties map[string]string) (any, error)

// ActionDefinition binds a transition of a facet version to its config
// factory and delegate. From restricts a version-change definition to the
// versions it may be applied from; the zero value matches every version.
type ActionDefinition struct {
	Kind          ActionKind
	From          VersionExpr
	Properties    map[string]string
	ConfigFactory ConfigFactory
	Delegate      Delegate
}

// NewConfig returns the factory-built payload, or nil when there is no factory.
func (d *ActionDefinition) NewConfig() (any, error) {
	if d == nil || d.ConfigFactory == nil {
		return nil, nil
	}
	props := make(map[string]string, len(d.Properties))
	for k, v := range d.Properties {
		props[k] = v
	}
	return d.ConfigFactory(props)
}

// EventType names a lifecycle event.
type EventType string

const (
	EventPreInstall              EventType = "pre-install"
	EventPostInstall             EventType = "post-install"
	EventPreUninstall            EventType = "pre-uninstall"
	EventPostUninstall           EventType = "post-uninstall"
	EventPreVersionChange        EventType = "pre-version-change"
	EventPostVersionChange       EventType = "post-version-change"
	EventRuntimeChanged          EventType = "runtime-changed"
	EventTargetedRuntimesChanged EventType = "targeted-runtimes-changed"
	EventFixedFacetsChanged      EventType = "fixed-facets-changed"
)

// EventTypes lists every event type in lifecycle order.
func EventTypes() []EventType {
	return []EventType{
		EventPreInstall, EventPostInstall,
		EventPreUninstall, EventPostUninstall,
		EventPreVersionChange, EventPostVersionChange,
		EventRuntimeChanged, EventTargetedRuntimesChanged, EventFixedFacetsChanged,
	}
}

// PreEvent returns the pre-transition event for kind.
func PreEvent(kind ActionKind) EventType {
	switch kind {
	case ActionUninstall:
		return EventPreUninstall
	case ActionVersionChange:
		return EventPreVersionChange
	default:
		return EventPreInstall
	}
}

// PostEvent returns the post-transition event for kind.
func PostEvent(kind ActionKind) EventType {
	switch kind {
	case ActionUninstall:
		return EventPostUninstall
	case ActionVersionChange:
		return EventPostVersionChange
	default:
		return EventPostInstall
	}
}

// Event is delivered to event handlers. Version is nil for project-level
// events (targeted runtimes, fixed facets). OldPrimary/NewPrimary are set for
// runtime-changed events.
type Event struct {
	Type        EventType
	OperationID string
	Project     Project
	Version     *FacetVersion
	Config      any
	OldPrimary  string
	NewPrimary  string
	Runtimes    []string
	Fixed       []string
}

// EventHandler reacts to a lifecycle event. A returned error aborts the
// transition it was raised for.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, ev Event) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, ev Event) error { return f(ctx, ev) }
