package constraint

import (
	"slices"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/util/sets"
)

// Input is the project state a batch is checked against.
type Input struct {
	Catalog   catalog.Catalog
	Installed []*catalog.FacetVersion
	Fixed     []string
	Runtimes  []string
}

func (in Input) installedByFacet() map[string]*catalog.FacetVersion {
	m := make(map[string]*catalog.FacetVersion, len(in.Installed))
	for _, fv := range in.Installed {
		m[fv.FacetID()] = fv
	}
	return m
}

// Validate checks actions against in without changing anything: action
// well-formedness, fixed facets, the constraints of the resulting facet set,
// runtime support and dependency cycles.
func Validate(in Input, actions []action.Action) *Result {
	res := &Result{}
	installed := in.installedByFacet()
	fixed := sets.New(in.Fixed...)

	valid := checkActions(res, installed, fixed, actions)
	resulting := apply(installed, valid)

	checkConstraints(res, resulting)
	res.Merge(checkRuntimes(in.Catalog, resulting, in.Runtimes))

	if _, cycle := order(resolveInstalled(in, valid)); len(cycle) > 0 {
		fvs := make([]*catalog.FacetVersion, len(cycle))
		names := make([]string, len(cycle))
		for i, a := range cycle {
			fvs[i] = a.Version
			names[i] = a.String()
		}
		res.errorf(CodeCycle, fvs, "dependency cycle among %v", names)
	}
	return res
}

func checkActions(res *Result, installed map[string]*catalog.FacetVersion, fixed sets.Set[string], actions []action.Action) []action.Action {
	seen := sets.New[string]()
	valid := make([]action.Action, 0, len(actions))
	for _, a := range actions {
		if a.Version == nil || !a.Kind.Valid() {
			res.errorf(CodeInvalidAction, nil, "invalid action %q without a valid target", a.Kind)
			continue
		}
		fv := a.Version
		id := fv.FacetID()
		if seen.Has(id) {
			res.errorf(CodeDuplicateAction, []*catalog.FacetVersion{fv}, "more than one action targets facet %s", id)
			continue
		}
		seen.Add(id)

		current, isInstalled := installed[id]
		ok := true
		if a.Kind != action.KindUninstall && fv.IsUnknown() {
			code := CodeUnknownVersion
			if fv.Facet().IsUnknown() {
				code = CodeUnknownFacet
			}
			res.errorf(code, []*catalog.FacetVersion{fv}, "%s is not defined in the catalog", fv)
			ok = false
		}

		switch a.Kind {
		case action.KindInstall:
			if isInstalled {
				res.errorf(CodeAlreadyInstalled, []*catalog.FacetVersion{fv, current}, "cannot install %s: %s is already installed", fv, current)
				ok = false
			}
		case action.KindUninstall:
			if !isInstalled || !current.Equal(fv) {
				res.errorf(CodeNotInstalled, []*catalog.FacetVersion{fv}, "cannot uninstall %s: not installed", fv)
				ok = false
			} else if fixed.Has(id) {
				res.errorf(CodeFixedUninstall, []*catalog.FacetVersion{fv}, "cannot uninstall fixed facet %s", id)
				ok = false
			}
		case action.KindVersionChange:
			switch {
			case !isInstalled:
				res.errorf(CodeNotInstalled, []*catalog.FacetVersion{fv}, "cannot change version of %s: facet not installed", id)
				ok = false
			case current.Equal(fv):
				res.errorf(CodeSameVersion, []*catalog.FacetVersion{fv}, "%s is already installed", fv)
				ok = false
			case fixed.Has(id):
				res.errorf(CodeFixedChange, []*catalog.FacetVersion{current, fv}, "cannot change version of fixed facet %s", id)
				ok = false
			}
		}
		if ok {
			valid = append(valid, a)
		}
	}
	return valid
}

// apply returns the facet set that results from actions, keyed by facet ID.
func apply(installed map[string]*catalog.FacetVersion, actions []action.Action) map[string]*catalog.FacetVersion {
	out := make(map[string]*catalog.FacetVersion, len(installed)+len(actions))
	for id, fv := range installed {
		out[id] = fv
	}
	for _, a := range actions {
		switch a.Kind {
		case action.KindUninstall:
			delete(out, a.FacetID())
		default:
			out[a.FacetID()] = a.Version
		}
	}
	return out
}

func sortedVersions(m map[string]*catalog.FacetVersion) []*catalog.FacetVersion {
	out := make([]*catalog.FacetVersion, 0, len(m))
	for _, fv := range m {
		out = append(out, fv)
	}
	catalog.SortVersions(out)
	return out
}

func checkConstraints(res *Result, resulting map[string]*catalog.FacetVersion) {
	for _, fv := range sortedVersions(resulting) {
		for _, v := range fv.Constraint().Check(fv, resulting) {
			res.errorf(CodeUnsatisfied, []*catalog.FacetVersion{fv}, "%s %s", fv, v)
		}
	}
}

// CheckRuntimes reports facet versions of installed that a targeted runtime
// does not support. Runtimes missing from the catalog and placeholder facet
// versions yield warnings.
func CheckRuntimes(cat catalog.Catalog, installed []*catalog.FacetVersion, runtimes []string) *Result {
	m := make(map[string]*catalog.FacetVersion, len(installed))
	for _, fv := range installed {
		m[fv.FacetID()] = fv
	}
	return checkRuntimes(cat, m, runtimes)
}

func checkRuntimes(cat catalog.Catalog, resulting map[string]*catalog.FacetVersion, runtimes []string) *Result {
	res := &Result{}
	names := slices.Clone(runtimes)
	slices.Sort(names)
	names = slices.Compact(names)
	fvs := sortedVersions(resulting)
	for _, name := range names {
		rt, ok := cat.Runtime(name)
		if !ok {
			res.warnf(CodeUndefinedRuntime, nil, "targeted runtime %s is not defined", name)
			continue
		}
		for _, fv := range fvs {
			switch {
			case fv.IsUnknown():
				res.warnf(CodeUnknownOnRuntime, []*catalog.FacetVersion{fv}, "cannot verify that runtime %s supports unknown %s", name, fv)
			case !rt.Supports(fv):
				res.errorf(CodeUnsupported, []*catalog.FacetVersion{fv}, "runtime %s does not support %s", name, fv)
			}
		}
	}
	return res
}
