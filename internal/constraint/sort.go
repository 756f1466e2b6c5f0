package constraint

import (
	"cmp"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// Sort orders actions so that required facets are installed or changed
// before the facets requiring them, and requiring facets are uninstalled
// before what they require. Independent actions run in kind order
// (uninstall, version change, install), then by facet ID and version.
// A dependency cycle is returned as a validation error.
func Sort(in Input, actions []action.Action) ([]action.Action, error) {
	for _, a := range actions {
		if a.Version == nil {
			return nil, errors.ValidationError("cannot sort action without a target").Build()
		}
	}
	sorted, cycle := order(resolveInstalled(in, actions))
	if len(cycle) > 0 {
		names := make([]string, len(cycle))
		for i, a := range cycle {
			names[i] = a.String()
		}
		return nil, errors.ValidationError(fmt.Sprintf("dependency cycle among %v", names)).
			WithContext("actions", names).
			Build()
	}
	return sorted, nil
}

// resolveInstalled swaps uninstall targets for the installed instance so
// that the installed version's requirements drive ordering.
func resolveInstalled(in Input, actions []action.Action) []action.Action {
	installed := in.installedByFacet()
	out := slices.Clone(actions)
	for i, a := range out {
		if a.Kind != action.KindUninstall {
			continue
		}
		if cur, ok := installed[a.FacetID()]; ok && cur.Equal(a.Version) {
			out[i].Version = cur
		}
	}
	return out
}

func readyOrder(a, b action.Action) int {
	if c := cmp.Compare(a.Kind.Rank(), b.Kind.Rank()); c != 0 {
		return c
	}
	return action.Compare(a, b)
}

// order runs Kahn's algorithm over requires edges. It returns the ordered
// actions, or the actions blocked by a cycle.
func order(actions []action.Action) ([]action.Action, []action.Action) {
	n := len(actions)
	if n == 0 {
		return []action.Action{}, nil
	}

	byFacet := make(map[string][]int, n)
	for i, a := range actions {
		byFacet[a.FacetID()] = append(byFacet[a.FacetID()], i)
	}

	graph := make([][]int, n)
	inDegree := make([]int, n)
	for i, a := range actions {
		for _, req := range a.Version.Constraint().Requirements() {
			for _, j := range byFacet[req] {
				if j == i {
					continue
				}
				b := actions[j]
				switch {
				case a.Kind != action.KindUninstall && b.Kind != action.KindUninstall:
					// required facet first
					graph[j] = append(graph[j], i)
					inDegree[i]++
				case a.Kind == action.KindUninstall && b.Kind == action.KindUninstall:
					// requiring facet leaves first
					graph[i] = append(graph[i], j)
					inDegree[j]++
				}
			}
		}
	}

	var ready []int
	for i := range actions {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]action.Action, 0, n)
	visited := make([]bool, n)
	for len(ready) > 0 {
		slices.SortFunc(ready, func(x, y int) int { return readyOrder(actions[x], actions[y]) })
		cur := ready[0]
		ready = ready[1:]
		visited[cur] = true
		result = append(result, actions[cur])
		for _, next := range graph[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(result) == n {
		return result, nil
	}
	var cycle []action.Action
	for i, a := range actions {
		if !visited[i] {
			cycle = append(cycle, a)
		}
	}
	slices.SortFunc(cycle, readyOrder)
	return nil, cycle
}
