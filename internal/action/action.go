// Package action models requested facet transitions and derives them from
// a base and a desired facet set.
package action

import (
	"cmp"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/facets/internal/catalog"
)

// Kind is the transition an Action requests.
type Kind = catalog.ActionKind

const (
	KindInstall       = catalog.ActionInstall
	KindUninstall     = catalog.ActionUninstall
	KindVersionChange = catalog.ActionVersionChange
)

// Action is one requested transition. Config is an optional payload handed
// to the delegate; nil means the action definition's factory decides.
type Action struct {
	Kind    Kind
	Version *catalog.FacetVersion
	Config  any
}

func Install(fv *catalog.FacetVersion) Action   { return Action{Kind: KindInstall, Version: fv} }
func Uninstall(fv *catalog.FacetVersion) Action { return Action{Kind: KindUninstall, Version: fv} }

func VersionChange(fv *catalog.FacetVersion) Action {
	return Action{Kind: KindVersionChange, Version: fv}
}

// WithConfig returns a copy of a carrying cfg.
func (a Action) WithConfig(cfg any) Action {
	a.Config = cfg
	return a
}

// FacetID returns the target facet.
func (a Action) FacetID() string { return a.Version.FacetID() }

func (a Action) String() string { return fmt.Sprintf("%s(%s)", a.Kind, a.Version) }

// Equal compares kind and target. The payload is not part of identity.
func (a Action) Equal(b Action) bool { return a.Kind == b.Kind && a.Version.Equal(b.Version) }

// SameSlot reports whether a and b request the same kind of transition on
// the same facet.
func SameSlot(a, b Action) bool { return a.Kind == b.Kind && a.FacetID() == b.FacetID() }

// Find returns the first action of kind on facetID.
func Find(actions []Action, kind Kind, facetID string) (Action, bool) {
	for _, a := range actions {
		if a.Kind == kind && a.FacetID() == facetID {
			return a, true
		}
	}
	return Action{}, false
}

// Compare orders actions by facet ID, kind rank, then version.
func Compare(a, b Action) int {
	if c := cmp.Compare(a.FacetID(), b.FacetID()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind.Rank(), b.Kind.Rank()); c != 0 {
		return c
	}
	return catalog.Compare(a.Version, b.Version)
}

// Compute derives the actions that turn base into desired. An uninstall and
// an install on the same facet collapse into one version change. When more
// than one install targets the facet of an uninstall, the lowest version
// (facet declaration order) is coalesced and the others stay installs.
// The result is sorted by Compare.
func Compute(base, desired []*catalog.FacetVersion) []Action {
	inBase := refs(base)
	inDesired := refs(desired)

	var uninstalls, installs []*catalog.FacetVersion
	for _, fv := range base {
		if _, ok := inDesired[fv.Ref()]; !ok {
			uninstalls = append(uninstalls, fv)
		}
	}
	for _, fv := range desired {
		if _, ok := inBase[fv.Ref()]; !ok {
			installs = append(installs, fv)
		}
	}
	catalog.SortVersions(uninstalls)
	catalog.SortVersions(installs)
	uninstalls = dedupe(uninstalls)
	installs = dedupe(installs)

	out := make([]Action, 0, len(uninstalls)+len(installs))
	consumed := make([]bool, len(installs))
	for _, u := range uninstalls {
		match := -1
		for i, in := range installs {
			if !consumed[i] && in.FacetID() == u.FacetID() {
				match = i
				break
			}
		}
		if match < 0 {
			out = append(out, Uninstall(u))
			continue
		}
		consumed[match] = true
		out = append(out, VersionChange(installs[match]))
	}
	for i, in := range installs {
		if !consumed[i] {
			out = append(out, Install(in))
		}
	}
	slices.SortFunc(out, Compare)
	return out
}

func refs(fvs []*catalog.FacetVersion) map[catalog.Ref]struct{} {
	m := make(map[catalog.Ref]struct{}, len(fvs))
	for _, fv := range fvs {
		m[fv.Ref()] = struct{}{}
	}
	return m
}

// dedupe drops adjacent equal refs from a sorted slice.
func dedupe(fvs []*catalog.FacetVersion) []*catalog.FacetVersion {
	return slices.CompactFunc(fvs, func(a, b *catalog.FacetVersion) bool { return a.Equal(b) })
}
