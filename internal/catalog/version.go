package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// CompareVersions orders dotted version strings segment by segment. Numeric
// segments compare numerically, anything else lexically; a version that is a
// prefix of another sorts first.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func compareSegment(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return an - bn
	}
	return strings.Compare(a, b)
}

// VersionExpr matches version strings. Supported terms, comma separated:
//
//	1.5          exact version
//	1.5+         1.5 or later
//	[1.3-1.6]    inclusive range; use ( or ) for exclusive bounds
//	*            any version
//
// The zero value matches every version.
type VersionExpr struct {
	raw   string
	terms []versionTerm
}

type versionTerm struct {
	any          bool
	exact        string
	min, max     string
	minInclusive bool
	maxInclusive bool
}

// ParseVersionExpr parses an expression. An empty string yields the zero value.
func ParseVersionExpr(s string) (VersionExpr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionExpr{}, nil
	}
	expr := VersionExpr{raw: s}
	for _, part := range strings.Split(s, ",") {
		term, err := parseTerm(strings.TrimSpace(part))
		if err != nil {
			return VersionExpr{}, errors.CatalogError(fmt.Sprintf("invalid version expression %q", s)).
				WithCause(err).Build()
		}
		expr.terms = append(expr.terms, term)
	}
	return expr, nil
}

// MustParseVersionExpr is ParseVersionExpr for static expressions; it panics on error.
func MustParseVersionExpr(s string) VersionExpr {
	expr, err := ParseVersionExpr(s)
	if err != nil {
		panic(err)
	}
	return expr
}

func parseTerm(t string) (versionTerm, error) {
	switch {
	case t == "":
		return versionTerm{}, fmt.Errorf("empty term")
	case t == "*":
		return versionTerm{any: true}, nil
	case strings.HasSuffix(t, "+"):
		v := strings.TrimSuffix(t, "+")
		if v == "" {
			return versionTerm{}, fmt.Errorf("missing lower bound in %q", t)
		}
		return versionTerm{min: v, minInclusive: true}, nil
	case strings.HasPrefix(t, "[") || strings.HasPrefix(t, "("):
		if len(t) < 5 {
			return versionTerm{}, fmt.Errorf("malformed range %q", t)
		}
		closing := t[len(t)-1]
		if closing != ']' && closing != ')' {
			return versionTerm{}, fmt.Errorf("unterminated range %q", t)
		}
		lo, hi, ok := strings.Cut(t[1:len(t)-1], "-")
		if !ok || lo == "" || hi == "" {
			return versionTerm{}, fmt.Errorf("range %q needs two bounds", t)
		}
		return versionTerm{
			min: lo, max: hi,
			minInclusive: t[0] == '[',
			maxInclusive: closing == ']',
		}, nil
	default:
		return versionTerm{exact: t}, nil
	}
}

// Match reports whether v satisfies the expression.
func (e VersionExpr) Match(v string) bool {
	if len(e.terms) == 0 {
		return true
	}
	for _, t := range e.terms {
		if t.match(v) {
			return true
		}
	}
	return false
}

func (t versionTerm) match(v string) bool {
	if t.any {
		return true
	}
	if t.exact != "" {
		return t.exact == v
	}
	if t.min != "" {
		c := CompareVersions(v, t.min)
		if c < 0 || (c == 0 && !t.minInclusive) {
			return false
		}
	}
	if t.max != "" {
		c := CompareVersions(v, t.max)
		if c > 0 || (c == 0 && !t.maxInclusive) {
			return false
		}
	}
	return true
}

// IsZero reports the match-all zero value.
func (e VersionExpr) IsZero() bool { return len(e.terms) == 0 }

func (e VersionExpr) String() string {
	if e.raw == "" {
		return "*"
	}
	return e.raw
}
