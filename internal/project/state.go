package project

import (
	"maps"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/metadata"
	"git.home.luguber.info/inful/facets/internal/util/sets"
)

// state is never modified after it has been published; mutators work on a clone.
type state struct {
	installed map[string]*catalog.FacetVersion
	fixed     sets.Set[string]
	runtimes  sets.Set[string]
	primary   string
}

func emptyState() *state {
	return &state{
		installed: map[string]*catalog.FacetVersion{},
		fixed:     sets.New[string](),
		runtimes:  sets.New[string](),
	}
}

func (s *state) clone() *state {
	return &state{
		installed: maps.Clone(s.installed),
		fixed:     s.fixed.Clone(),
		runtimes:  s.runtimes.Clone(),
		primary:   s.primary,
	}
}

func (s *state) installedList() []*catalog.FacetVersion {
	out := make([]*catalog.FacetVersion, 0, len(s.installed))
	for _, fv := range s.installed {
		out = append(out, fv)
	}
	catalog.SortVersions(out)
	return out
}

func (s *state) toMetadata() metadata.State {
	return metadata.State{
		Installed: s.installedList(),
		Fixed:     sets.Sorted(s.fixed),
		Runtimes:  sets.Sorted(s.runtimes),
		Primary:   s.primary,
	}
}

func fromMetadata(ms metadata.State) *state {
	s := emptyState()
	for _, fv := range ms.Installed {
		s.installed[fv.FacetID()] = fv
	}
	for _, id := range ms.Fixed {
		s.fixed.Add(id)
	}
	for _, r := range ms.Runtimes {
		s.runtimes.Add(r)
	}
	s.primary = derivePrimary(ms.Primary, s.runtimes)
	return s
}

// derivePrimary keeps current while it is targeted, otherwise picks the
// first targeted runtime by name, or none.
func derivePrimary(current string, targeted sets.Set[string]) string {
	if current != "" && targeted.Has(current) {
		return current
	}
	if targeted.Len() == 0 {
		return ""
	}
	return sets.Sorted(targeted)[0]
}

// Snapshot is a consistent copy of a project's durable state.
type Snapshot struct {
	Name      string         `json:"name"`
	Root      string         `json:"root"`
	Installed []catalog.Ref  `json:"installed"`
	Fixed     []string       `json:"fixed"`
	Runtimes  []string       `json:"runtimes"`
	Primary   string         `json:"primary,omitempty"`
	Stamp     metadata.Stamp `json:"stamp,omitempty"`
}
