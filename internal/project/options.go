package project

import (
	"log/slog"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/metadata"
	"git.home.luguber.info/inful/facets/internal/metrics"
)

// Persister loads and saves the durable state of a project.
// *metadata.Store is the file-backed implementation.
type Persister interface {
	Load(cat catalog.Catalog) (metadata.State, metadata.Stamp, error)
	Save(st metadata.State) (metadata.Stamp, error)
	CurrentStamp() (metadata.Stamp, error)
}

// Option configures Open.
type Option func(*FacetedProject)

// WithName overrides the project name (default: base name of the root).
func WithName(name string) Option {
	return func(p *FacetedProject) { p.name = name }
}

// WithMetadataPath places the metadata document at path, relative to the root
// unless absolute.
func WithMetadataPath(path string) Option {
	return func(p *FacetedProject) { p.metadataPath = path }
}

// WithPersister replaces the file-backed store.
func WithPersister(store Persister) Option {
	return func(p *FacetedProject) { p.store = store }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(p *FacetedProject) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *FacetedProject) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithEventHandler registers a project-level handler for t. Project-level
// handlers run after the handlers the catalog declares for the facet version.
func WithEventHandler(t catalog.EventType, h catalog.EventHandler) Option {
	return func(p *FacetedProject) {
		if h != nil {
			p.handlers[t] = append(p.handlers[t], h)
		}
	}
}
