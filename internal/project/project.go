package project

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/constraint"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/metadata"
	"git.home.luguber.info/inful/facets/internal/metrics"
	"git.home.luguber.info/inful/facets/internal/util/sets"
)

// FacetedProject is the facet state of one project directory.
type FacetedProject struct {
	name         string
	root         string
	metadataPath string
	cat          catalog.Catalog
	store        Persister
	recorder     metrics.Recorder
	logger       *slog.Logger
	handlers     map[catalog.EventType][]catalog.EventHandler

	// modifying holds one token while a mutation runs.
	modifying chan struct{}

	stateMu sync.RWMutex
	st      *state
	stamp   metadata.Stamp
	// diverged is set when a save failed after the state was published.
	diverged bool

	listenersMu    sync.Mutex
	listeners      []listenerEntry
	nextListenerID ListenerID
}

var _ catalog.Project = (*FacetedProject)(nil)

// modKey marks a context as running inside a mutation of one project.
type modKey struct{ p *FacetedProject }

// Open loads the project rooted at root. A missing metadata document is an
// empty project; a malformed one is a parse error.
func Open(ctx context.Context, root string, cat catalog.Catalog, opts ...Option) (*FacetedProject, error) {
	if cat == nil {
		return nil, errors.ValidationError("catalog is required").Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve project root").WithCause(err).WithContext("root", root).Build()
	}

	p := &FacetedProject{
		name:      filepath.Base(abs),
		root:      abs,
		cat:       cat,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		handlers:  map[catalog.EventType][]catalog.EventHandler{},
		modifying: make(chan struct{}, 1),
		st:        emptyState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		p.store = metadata.NewStore(metadata.StorePath(p.root, p.metadataPath))
	}
	p.logger = p.logger.With(logfields.Project(p.name))

	ms, stamp, err := p.store.Load(cat)
	if err != nil {
		return nil, err
	}
	p.st = fromMetadata(ms)
	p.stamp = stamp
	p.recorder.SetInstalledFacets(p.name, len(p.st.installed))

	p.logger.DebugContext(ctx, "Opened faceted project",
		logfields.Path(p.root),
		logfields.Count(len(p.st.installed)),
		logfields.Stamp(stamp.Short()))
	return p, nil
}

func (p *FacetedProject) Name() string { return p.name }
func (p *FacetedProject) Root() string { return p.root }

// Catalog returns the catalog the project validates against.
func (p *FacetedProject) Catalog() catalog.Catalog { return p.cat }

func (p *FacetedProject) current() *state {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.st
}

// InstalledFacets returns the installed facet versions sorted by facet ID.
func (p *FacetedProject) InstalledFacets() []*catalog.FacetVersion {
	return p.current().installedList()
}

// InstalledVersion returns the installed version of facetID.
func (p *FacetedProject) InstalledVersion(facetID string) (*catalog.FacetVersion, bool) {
	fv, ok := p.current().installed[facetID]
	return fv, ok
}

func (p *FacetedProject) HasFacet(facetID string) bool {
	_, ok := p.InstalledVersion(facetID)
	return ok
}

// FixedFacets returns the fixed facet IDs sorted.
func (p *FacetedProject) FixedFacets() []string { return sets.Sorted(p.current().fixed) }

func (p *FacetedProject) IsFixed(facetID string) bool { return p.current().fixed.Has(facetID) }

// TargetedRuntimes returns the targeted runtime names sorted, primary included.
func (p *FacetedProject) TargetedRuntimes() []string { return sets.Sorted(p.current().runtimes) }

// PrimaryRuntime returns the primary runtime, if any runtime is targeted.
func (p *FacetedProject) PrimaryRuntime() (string, bool) {
	primary := p.current().primary
	return primary, primary != ""
}

// Stamp returns the stamp of the last document loaded or saved.
func (p *FacetedProject) Stamp() metadata.Stamp {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.stamp
}

// Diverged reports whether the last save failed, leaving the in-memory state
// ahead of the document. The next successful save or Refresh clears it.
func (p *FacetedProject) Diverged() bool {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.diverged
}

// Snapshot returns every durable field from one consistent state.
func (p *FacetedProject) Snapshot() Snapshot {
	p.stateMu.RLock()
	st, stamp := p.st, p.stamp
	p.stateMu.RUnlock()

	refs := make([]catalog.Ref, 0, len(st.installed))
	for _, fv := range st.installedList() {
		refs = append(refs, fv.Ref())
	}
	return Snapshot{
		Name:      p.name,
		Root:      p.root,
		Installed: refs,
		Fixed:     sets.Sorted(st.fixed),
		Runtimes:  sets.Sorted(st.runtimes),
		Primary:   st.primary,
		Stamp:     stamp,
	}
}

// Check validates actions against the current state without running them.
func (p *FacetedProject) Check(actions ...action.Action) *constraint.Result {
	return constraint.Validate(p.input(p.current()), actions)
}

func (p *FacetedProject) input(st *state) constraint.Input {
	return constraint.Input{
		Catalog:   p.cat,
		Installed: st.installedList(),
		Fixed:     sets.Sorted(st.fixed),
		Runtimes:  sets.Sorted(st.runtimes),
	}
}

// publish swaps in next and, when stamp is non-nil, the stamp it was loaded with.
func (p *FacetedProject) publish(next *state, stamp *metadata.Stamp) {
	p.stateMu.Lock()
	p.st = next
	if stamp != nil {
		p.stamp = *stamp
		p.diverged = false
	}
	p.stateMu.Unlock()
	p.recorder.SetInstalledFacets(p.name, len(next.installed))
}

// persist saves next and records the resulting stamp.
func (p *FacetedProject) persist(next *state) error {
	stamp, err := p.store.Save(next.toMetadata())
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if err != nil {
		p.diverged = true
		return err
	}
	p.stamp = stamp
	p.diverged = false
	return nil
}

func (p *FacetedProject) inModification(ctx context.Context) bool {
	return ctx.Value(modKey{p}) != nil
}

// acquire takes the modification slot. It rejects callers already inside a
// mutation of p and waits for everybody else. The returned context is marked
// for re-entrancy detection; release must be called exactly once.
func (p *FacetedProject) acquire(ctx context.Context) (context.Context, func(), error) {
	if p.inModification(ctx) {
		return nil, nil, ErrConcurrentModification.WithContext("project", p.name)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, canceledError(err, 0)
	}

	start := time.Now()
	select {
	case p.modifying <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, canceledError(ctx.Err(), 0)
	}
	p.recorder.ObserveLockWait(time.Since(start))

	var once sync.Once
	release := func() { once.Do(func() { <-p.modifying }) }
	return context.WithValue(ctx, modKey{p}, struct{}{}), release, nil
}

// tryAcquire takes the slot only if it is free.
func (p *FacetedProject) tryAcquire() (func(), bool) {
	select {
	case p.modifying <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.modifying }) }, true
	default:
		return nil, false
	}
}

// fire runs the catalog handlers of fv for ev.Type, then the project-level
// ones. The first error or panic stops the chain.
func (p *FacetedProject) fire(ctx context.Context, ev catalog.Event) error {
	var chain []catalog.EventHandler
	if ev.Version != nil {
		chain = append(chain, ev.Version.EventHandlers(ev.Type)...)
	}
	chain = append(chain, p.handlers[ev.Type]...)
	for _, h := range chain {
		if err := recovered(func() error { return h.HandleEvent(ctx, ev) }); err != nil {
			return err
		}
	}
	return nil
}
