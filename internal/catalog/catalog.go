package catalog

import (
	stderrors "errors"
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// Catalog is the read-only registry of facets and runtimes.
type Catalog interface {
	IsFacetDefined(id string) bool
	Facet(id string) (*Facet, bool)
	Facets() []*Facet
	IsRuntimeDefined(name string) bool
	Runtime(name string) (*Runtime, bool)
	Runtimes() []*Runtime
}

// Static is the immutable Catalog produced by Builder and Parse.
type Static struct {
	facets   map[string]*Facet
	runtimes map[string]*Runtime
}

var _ Catalog = (*Static)(nil)

func (s *Static) IsFacetDefined(id string) bool {
	_, ok := s.facets[id]
	return ok
}

func (s *Static) Facet(id string) (*Facet, bool) {
	f, ok := s.facets[id]
	return f, ok
}

// Facets returns every facet sorted by ID.
func (s *Static) Facets() []*Facet {
	out := slices.Collect(maps.Values(s.facets))
	slices.SortFunc(out, func(a, b *Facet) int {
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})
	return out
}

func (s *Static) IsRuntimeDefined(name string) bool {
	_, ok := s.runtimes[name]
	return ok
}

func (s *Static) Runtime(name string) (*Runtime, bool) {
	r, ok := s.runtimes[name]
	return r, ok
}

// Runtimes returns every runtime sorted by name.
func (s *Static) Runtimes() []*Runtime {
	out := slices.Collect(maps.Values(s.runtimes))
	slices.SortFunc(out, func(a, b *Runtime) int {
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})
	return out
}

// Resolve returns the catalog's facet version, or a placeholder when the
// facet or the version is not defined.
func Resolve(cat Catalog, facetID, version string) *FacetVersion {
	f, ok := cat.Facet(facetID)
	if !ok {
		return UnknownFacetVersion(facetID, version)
	}
	if fv, ok := f.Version(version); ok {
		return fv
	}
	return &FacetVersion{facet: f, version: version, unknown: true}
}

// Lookup is the strict form of Resolve used for user input.
func Lookup(cat Catalog, ref Ref) (*FacetVersion, error) {
	f, ok := cat.Facet(ref.Facet)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("facet %q is not defined", ref.Facet)).Build()
	}
	fv, ok := f.Version(ref.Version)
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("facet %q has no version %q", ref.Facet, ref.Version)).Build()
	}
	return fv, nil
}

// UnknownFacetVersion builds a placeholder for a facet absent from the catalog.
func UnknownFacetVersion(facetID, version string) *FacetVersion {
	f := &Facet{id: facetID, unknown: true, index: map[string]int{}}
	return &FacetVersion{facet: f, version: version, unknown: true}
}

// FacetOption configures a facet added to a Builder.
type FacetOption func(*Facet)

func FacetLabel(label string) FacetOption { return func(f *Facet) { f.label = label } }

func InGroups(groups ...string) FacetOption {
	return func(f *Facet) { f.groups = append(f.groups, groups...) }
}

// Universal marks the facet as supported by every runtime.
func Universal() FacetOption { return func(f *Facet) { f.universal = true } }

// VersionOption configures a facet version added to a Builder.
type VersionOption func(*FacetVersion) error

// WithAction attaches an action definition.
func WithAction(def ActionDefinition) VersionOption {
	return func(fv *FacetVersion) error {
		if !def.Kind.Valid() {
			return fmt.Errorf("%s: invalid action kind %q", fv, def.Kind)
		}
		fv.actions = append(fv.actions, def)
		return nil
	}
}

// WithHandler appends an event handler for t.
func WithHandler(t EventType, h EventHandler) VersionOption {
	return func(fv *FacetVersion) error {
		if h == nil {
			return fmt.Errorf("%s: nil handler for %s", fv, t)
		}
		if fv.handlers == nil {
			fv.handlers = map[EventType][]EventHandler{}
		}
		fv.handlers[t] = append(fv.handlers[t], h)
		return nil
	}
}

// WithConstraint sets the version constraint. Several calls are combined with All.
func WithConstraint(c *Constraint) VersionOption {
	return func(fv *FacetVersion) error {
		if fv.constraint == nil {
			fv.constraint = c
			return nil
		}
		fv.constraint = All(fv.constraint, c)
		return nil
	}
}

// RuntimeOption configures a runtime added to a Builder.
type RuntimeOption func(*Runtime) error

func RuntimeLabel(label string) RuntimeOption {
	return func(r *Runtime) error {
		r.label = label
		return nil
	}
}

// Supports declares support for the versions of facet matched by versions.
func Supports(facet, versions string) RuntimeOption {
	return func(r *Runtime) error {
		expr, err := ParseVersionExpr(versions)
		if err != nil {
			return fmt.Errorf("runtime %s: %w", r.name, err)
		}
		r.supports = append(r.supports, Support{Facet: facet, Versions: expr})
		return nil
	}
}

// Builder assembles a Static catalog. Errors are collected and reported by Build.
type Builder struct {
	facets   map[string]*Facet
	runtimes map[string]*Runtime
	errs     []error
}

func NewBuilder() *Builder {
	return &Builder{facets: map[string]*Facet{}, runtimes: map[string]*Runtime{}}
}

// AddFacet declares a facet. Versions are added with AddVersion.
func (b *Builder) AddFacet(id string, opts ...FacetOption) *Builder {
	if id == "" {
		b.errs = append(b.errs, fmt.Errorf("facet id must not be empty"))
		return b
	}
	if _, dup := b.facets[id]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate facet %q", id))
		return b
	}
	f := &Facet{id: id, index: map[string]int{}}
	for _, opt := range opts {
		opt(f)
	}
	b.facets[id] = f
	return b
}

// AddVersion appends a version to a declared facet. Declaration order is
// the facet's version order.
func (b *Builder) AddVersion(facetID, version string, opts ...VersionOption) *Builder {
	f, ok := b.facets[facetID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("version %q declared for undefined facet %q", version, facetID))
		return b
	}
	if version == "" {
		b.errs = append(b.errs, fmt.Errorf("facet %q: version must not be empty", facetID))
		return b
	}
	if f.HasVersion(version) {
		b.errs = append(b.errs, fmt.Errorf("facet %q: duplicate version %q", facetID, version))
		return b
	}
	fv := &FacetVersion{facet: f, version: version}
	for _, opt := range opts {
		if err := opt(fv); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	f.index[version] = len(f.versions)
	f.versions = append(f.versions, fv)
	return b
}

// AddRuntime declares a runtime.
func (b *Builder) AddRuntime(name string, opts ...RuntimeOption) *Builder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("runtime name must not be empty"))
		return b
	}
	if _, dup := b.runtimes[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate runtime %q", name))
		return b
	}
	r := &Runtime{name: name}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			b.errs = append(b.errs, err)
		}
	}
	b.runtimes[name] = r
	return b
}

// Build returns the catalog, or a catalog error joining every problem seen.
func (b *Builder) Build() (*Static, error) {
	if len(b.errs) > 0 {
		return nil, errors.CatalogError("invalid catalog definition").
			WithCause(stderrors.Join(b.errs...)).
			WithContext("problems", len(b.errs)).
			Build()
	}
	return &Static{facets: maps.Clone(b.facets), runtimes: maps.Clone(b.runtimes)}, nil
}
