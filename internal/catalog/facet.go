package catalog

import (
	"slices"
)

// Facet is a named capability with an ordered list of versions.
type Facet struct {
	id        string
	label     string
	groups    []string
	universal bool
	unknown   bool
	versions  []*FacetVersion
	index     map[string]int
}

func (f *Facet) ID() string { return f.id }

// Label returns the display label, falling back to the ID.
func (f *Facet) Label() string {
	if f.label == "" {
		return f.id
	}
	return f.label
}

// Groups returns the conflict groups the facet belongs to.
func (f *Facet) Groups() []string { return slices.Clone(f.groups) }

// InGroup reports membership of the named group.
func (f *Facet) InGroup(group string) bool { return slices.Contains(f.groups, group) }

// Universal facets are supported by every runtime.
func (f *Facet) Universal() bool { return f.universal }

// IsUnknown reports a placeholder for an ID missing from the catalog.
func (f *Facet) IsUnknown() bool { return f.unknown }

// Versions returns the declared versions in declaration order.
func (f *Facet) Versions() []*FacetVersion { return slices.Clone(f.versions) }

func (f *Facet) HasVersion(v string) bool {
	_, ok := f.index[v]
	return ok
}

// Version returns the declared version v.
func (f *Facet) Version(v string) (*FacetVersion, bool) {
	i, ok := f.index[v]
	if !ok {
		return nil, false
	}
	return f.versions[i], true
}

// Latest returns the last declared version, or nil for a facet without versions.
func (f *Facet) Latest() *FacetVersion {
	if len(f.versions) == 0 {
		return nil
	}
	return f.versions[len(f.versions)-1]
}

// CompareVersions orders two version strings of this facet: declared versions
// by declaration order, undeclared ones after them by CompareVersions.
func (f *Facet) CompareVersions(a, b string) int {
	ia, oka := f.index[a]
	ib, okb := f.index[b]
	switch {
	case oka && okb:
		return ia - ib
	case oka:
		return -1
	case okb:
		return 1
	default:
		return CompareVersions(a, b)
	}
}

// FacetVersion is one installable version of a facet. Values are immutable
// and compared by Ref.
type FacetVersion struct {
	facet      *Facet
	version    string
	unknown    bool
	constraint *Constraint
	actions    []ActionDefinition
	handlers   map[EventType][]EventHandler
}

func (fv *FacetVersion) Facet() *Facet   { return fv.facet }
func (fv *FacetVersion) FacetID() string { return fv.facet.id }
func (fv *FacetVersion) Version() string { return fv.version }
func (fv *FacetVersion) Ref() Ref        { return Ref{Facet: fv.facet.id, Version: fv.version} }
func (fv *FacetVersion) String() string  { return fv.Ref().String() }

// IsUnknown reports a placeholder for a facet or version missing from the catalog.
func (fv *FacetVersion) IsUnknown() bool { return fv.unknown || fv.facet.unknown }

// Equal compares by facet ID and version string.
func (fv *FacetVersion) Equal(other *FacetVersion) bool {
	if fv == nil || other == nil {
		return fv == other
	}
	return fv.Ref() == other.Ref()
}

// Constraint returns the declared constraint, or nil.
func (fv *FacetVersion) Constraint() *Constraint { return fv.constraint }

// ActionDefinition returns the definition for kind. For version changes the
// currently installed version of the same facet in base selects among
// definitions by their From expression.
func (fv *FacetVersion) ActionDefinition(base []*FacetVersion, kind ActionKind) (*ActionDefinition, bool) {
	from := ""
	if kind == ActionVersionChange {
		for _, b := range base {
			if b.FacetID() == fv.FacetID() {
				from = b.Version()
				break
			}
		}
	}
	for i := range fv.actions {
		def := &fv.actions[i]
		if def.Kind != kind {
			continue
		}
		if kind == ActionVersionChange && from != "" && !def.From.Match(from) {
			continue
		}
		return def, true
	}
	return nil, false
}

// EventHandlers returns the handlers registered for t in registration order.
func (fv *FacetVersion) EventHandlers(t EventType) []EventHandler {
	return slices.Clone(fv.handlers[t])
}

// Compare orders facet versions by facet ID, then version.
func Compare(a, b *FacetVersion) int {
	if a.FacetID() != b.FacetID() {
		if a.FacetID() < b.FacetID() {
			return -1
		}
		return 1
	}
	return a.facet.CompareVersions(a.version, b.version)
}

// SortVersions sorts in place by Compare.
func SortVersions(fvs []*FacetVersion) {
	slices.SortFunc(fvs, Compare)
}

// Support declares that a runtime supports the matching versions of a facet.
type Support struct {
	Facet    string
	Versions VersionExpr
}

// Runtime is a deployment target.
type Runtime struct {
	name     string
	label    string
	supports []Support
}

func (r *Runtime) Name() string { return r.name }

func (r *Runtime) Label() string {
	if r.label == "" {
		return r.name
	}
	return r.label
}

// Supported returns the declared support entries.
func (r *Runtime) Supported() []Support { return slices.Clone(r.supports) }

// Supports reports whether the runtime can host fv. Placeholders are never supported.
func (r *Runtime) Supports(fv *FacetVersion) bool {
	if fv == nil || fv.IsUnknown() {
		return false
	}
	if fv.facet.universal {
		return true
	}
	for _, s := range r.supports {
		if s.Facet == fv.FacetID() && s.Versions.Match(fv.version) {
			return true
		}
	}
	return false
}
