package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// Bindings resolves the names used in a descriptor to Go implementations.
type Bindings struct {
	Delegates       map[string]Delegate
	Handlers        map[string]EventHandler
	ConfigFactories map[string]ConfigFactory
}

type descriptor struct {
	Facets   []facetDoc   `yaml:"facets"`
	Runtimes []runtimeDoc `yaml:"runtimes"`
}

type facetDoc struct {
	ID        string       `yaml:"id"`
	Label     string       `yaml:"label"`
	Groups    []string     `yaml:"groups"`
	Universal bool         `yaml:"universal"`
	Versions  []versionDoc `yaml:"versions"`
}

type versionDoc struct {
	Version    string              `yaml:"version"`
	Constraint *constraintDoc      `yaml:"constraint"`
	Actions    []actionDoc         `yaml:"actions"`
	Handlers   map[string][]string `yaml:"handlers"`
}

type actionDoc struct {
	Kind       string            `yaml:"kind"`
	From       string            `yaml:"from"`
	Delegate   string            `yaml:"delegate"`
	Config     string            `yaml:"config"`
	Properties map[string]string `yaml:"properties"`
}

type constraintDoc struct {
	Requires  *facetRefDoc    `yaml:"requires"`
	Conflicts *facetRefDoc    `yaml:"conflicts"`
	And       []constraintDoc `yaml:"and"`
	Or        []constraintDoc `yaml:"or"`
}

type facetRefDoc struct {
	Facet    string `yaml:"facet"`
	Group    string `yaml:"group"`
	Versions string `yaml:"versions"`
	Soft     bool   `yaml:"soft"`
}

type runtimeDoc struct {
	Name     string       `yaml:"name"`
	Label    string       `yaml:"label"`
	Supports []supportDoc `yaml:"supports"`
}

type supportDoc struct {
	Facet    string `yaml:"facet"`
	Versions string `yaml:"versions"`
}

// LoadFile reads a YAML catalog descriptor from path.
func LoadFile(path string, bindings Bindings) (*Static, error) {
	// #nosec G304 -- descriptor path is operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.CatalogError("failed to read catalog descriptor").
			WithCause(err).WithContext("path", path).Build()
	}
	return Parse(data, bindings)
}

// Parse builds a catalog from a YAML descriptor. Environment variables in the
// text are expanded first.
func Parse(data []byte, bindings Bindings) (*Static, error) {
	var doc descriptor
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return nil, errors.ParseError("failed to parse catalog descriptor").WithCause(err).Build()
	}

	b := NewBuilder()
	for _, fd := range doc.Facets {
		opts := []FacetOption{FacetLabel(fd.Label), InGroups(fd.Groups...)}
		if fd.Universal {
			opts = append(opts, Universal())
		}
		b.AddFacet(fd.ID, opts...)
		for _, vd := range fd.Versions {
			vopts, err := versionOptions(vd, bindings)
			if err != nil {
				b.errs = append(b.errs, fmt.Errorf("%s@%s: %w", fd.ID, vd.Version, err))
				continue
			}
			b.AddVersion(fd.ID, vd.Version, vopts...)
		}
	}
	for _, rd := range doc.Runtimes {
		opts := []RuntimeOption{RuntimeLabel(rd.Label)}
		for _, s := range rd.Supports {
			opts = append(opts, Supports(s.Facet, s.Versions))
		}
		b.AddRuntime(rd.Name, opts...)
	}
	return b.Build()
}

func versionOptions(vd versionDoc, bindings Bindings) ([]VersionOption, error) {
	var opts []VersionOption
	if vd.Constraint != nil {
		c, err := vd.Constraint.build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithConstraint(c))
	}
	for _, ad := range vd.Actions {
		def, err := ad.build(bindings)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAction(def))
	}
	// Fixed event type order; map iteration is random.
	for _, t := range EventTypes() {
		for _, name := range vd.Handlers[string(t)] {
			h, ok := bindings.Handlers[name]
			if !ok {
				return nil, fmt.Errorf("unknown event handler %q", name)
			}
			opts = append(opts, WithHandler(t, h))
		}
	}
	for key := range vd.Handlers {
		if !isEventType(key) {
			return nil, fmt.Errorf("unknown event type %q", key)
		}
	}
	return opts, nil
}

func isEventType(s string) bool {
	for _, t := range EventTypes() {
		if string(t) == s {
			return true
		}
	}
	return false
}

func (ad actionDoc) build(bindings Bindings) (ActionDefinition, error) {
	def := ActionDefinition{Kind: ActionKind(ad.Kind), Properties: ad.Properties}
	if !def.Kind.Valid() {
		return def, fmt.Errorf("invalid action kind %q", ad.Kind)
	}
	from, err := ParseVersionExpr(ad.From)
	if err != nil {
		return def, err
	}
	def.From = from
	if ad.Delegate != "" {
		d, ok := bindings.Delegates[ad.Delegate]
		if !ok {
			return def, fmt.Errorf("unknown delegate %q", ad.Delegate)
		}
		def.Delegate = d
	}
	if ad.Config != "" {
		f, ok := bindings.ConfigFactories[ad.Config]
		if !ok {
			return def, fmt.Errorf("unknown config factory %q", ad.Config)
		}
		def.ConfigFactory = f
	}
	return def, nil
}

func (cd constraintDoc) build() (*Constraint, error) {
	set := 0
	for _, present := range []bool{cd.Requires != nil, cd.Conflicts != nil, cd.And != nil, cd.Or != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("constraint must have exactly one of requires, conflicts, and, or")
	}

	switch {
	case cd.Requires != nil:
		if cd.Requires.Facet == "" {
			return nil, fmt.Errorf("requires needs a facet")
		}
		expr, err := ParseVersionExpr(cd.Requires.Versions)
		if err != nil {
			return nil, err
		}
		if cd.Requires.Soft {
			return SoftRequires(cd.Requires.Facet, expr), nil
		}
		return Requires(cd.Requires.Facet, expr), nil
	case cd.Conflicts != nil:
		if cd.Conflicts.Group != "" {
			return ConflictsWithGroup(cd.Conflicts.Group), nil
		}
		if cd.Conflicts.Facet == "" {
			return nil, fmt.Errorf("conflicts needs a facet or a group")
		}
		expr, err := ParseVersionExpr(cd.Conflicts.Versions)
		if err != nil {
			return nil, err
		}
		return ConflictsWith(cd.Conflicts.Facet, expr), nil
	default:
		docs, kind := cd.And, ConstraintAnd
		if cd.Or != nil {
			docs, kind = cd.Or, ConstraintOr
		}
		ops := make([]*Constraint, 0, len(docs))
		for _, d := range docs {
			op, err := d.build()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		return &Constraint{Kind: kind, Operands: ops}, nil
	}
}
