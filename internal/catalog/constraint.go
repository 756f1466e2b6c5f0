package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// ConstraintKind is the operator of a Constraint node.
type ConstraintKind string

const (
	ConstraintRequires  ConstraintKind = "requires"
	ConstraintConflicts ConstraintKind = "conflicts"
	ConstraintAnd       ConstraintKind = "and"
	ConstraintOr        ConstraintKind = "or"
)

// Constraint is a boolean expression over the set of installed facet versions.
// Soft requirements only influence execution order and are never violated.
type Constraint struct {
	Kind     ConstraintKind
	Facet    string
	Group    string
	Versions VersionExpr
	Soft     bool
	Operands []*Constraint
}

// Requires constrains the owner to be installed alongside a matching version of facet.
func Requires(facet string, versions VersionExpr) *Constraint {
	return &Constraint{Kind: ConstraintRequires, Facet: facet, Versions: versions}
}

// SoftRequires orders the owner after facet without requiring it.
func SoftRequires(facet string, versions VersionExpr) *Constraint {
	return &Constraint{Kind: ConstraintRequires, Facet: facet, Versions: versions, Soft: true}
}

// ConflictsWith forbids a matching version of facet next to the owner.
func ConflictsWith(facet string, versions VersionExpr) *Constraint {
	return &Constraint{Kind: ConstraintConflicts, Facet: facet, Versions: versions}
}

// ConflictsWithGroup forbids any other member of group next to the owner.
func ConflictsWithGroup(group string) *Constraint {
	return &Constraint{Kind: ConstraintConflicts, Group: group}
}

func All(operands ...*Constraint) *Constraint {
	return &Constraint{Kind: ConstraintAnd, Operands: operands}
}

func Any(operands ...*Constraint) *Constraint {
	return &Constraint{Kind: ConstraintOr, Operands: operands}
}

// Check evaluates the constraint of owner against the resulting installed
// set (keyed by facet ID) and returns a description per violation.
func (c *Constraint) Check(owner *FacetVersion, installed map[string]*FacetVersion) []string {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ConstraintRequires:
		if c.Soft {
			return nil
		}
		if fv, ok := installed[c.Facet]; ok && c.Versions.Match(fv.Version()) {
			return nil
		}
		return []string{c.String()}
	case ConstraintConflicts:
		return c.checkConflict(owner, installed)
	case ConstraintAnd:
		var out []string
		for _, op := range c.Operands {
			out = append(out, op.Check(owner, installed)...)
		}
		return out
	case ConstraintOr:
		if len(c.Operands) == 0 {
			return nil
		}
		for _, op := range c.Operands {
			if len(op.Check(owner, installed)) == 0 {
				return nil
			}
		}
		return []string{c.String()}
	default:
		return []string{fmt.Sprintf("unsupported constraint %q", c.Kind)}
	}
}

func (c *Constraint) checkConflict(owner *FacetVersion, installed map[string]*FacetVersion) []string {
	var out []string
	if c.Group != "" {
		ids := make([]string, 0, len(installed))
		for id := range installed {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if id == owner.FacetID() {
				continue
			}
			if installed[id].Facet().InGroup(c.Group) {
				out = append(out, fmt.Sprintf("conflicts with %s (group %s)", installed[id], c.Group))
			}
		}
		return out
	}
	if c.Facet == owner.FacetID() {
		return nil
	}
	if fv, ok := installed[c.Facet]; ok && c.Versions.Match(fv.Version()) {
		out = append(out, fmt.Sprintf("conflicts with %s", fv))
	}
	return out
}

// Satisfied reports whether Check finds no violation.
func (c *Constraint) Satisfied(owner *FacetVersion, installed map[string]*FacetVersion) bool {
	return len(c.Check(owner, installed)) == 0
}

// Requirements returns the sorted facet IDs named by requires nodes, soft
// ones included.
func (c *Constraint) Requirements() []string {
	seen := map[string]struct{}{}
	c.walk(func(n *Constraint) {
		if n.Kind == ConstraintRequires {
			seen[n.Facet] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c *Constraint) walk(fn func(*Constraint)) {
	if c == nil {
		return
	}
	fn(c)
	for _, op := range c.Operands {
		op.walk(fn)
	}
}

func (c *Constraint) String() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case ConstraintRequires:
		s := "requires " + c.Facet
		if !c.Versions.IsZero() {
			s += " " + c.Versions.String()
		}
		if c.Soft {
			s += " (soft)"
		}
		return s
	case ConstraintConflicts:
		if c.Group != "" {
			return "conflicts with group " + c.Group
		}
		s := "conflicts with " + c.Facet
		if !c.Versions.IsZero() {
			s += " " + c.Versions.String()
		}
		return s
	case ConstraintAnd, ConstraintOr:
		parts := make([]string, len(c.Operands))
		for i, op := range c.Operands {
			parts[i] = op.String()
		}
		sep := " and "
		if c.Kind == ConstraintOr {
			sep = " or "
		}
		return "(" + strings.Join(parts, sep) + ")"
	default:
		return string(c.Kind)
	}
}
