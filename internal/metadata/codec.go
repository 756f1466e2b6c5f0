// Package metadata reads and writes the facet metadata document of a
// project and computes its modification stamp.
package metadata

import (
	"bytes"
	stderrors "errors"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

// DefaultPath is the metadata location relative to the project root.
const DefaultPath = ".settings/facets.xml"

// Stamp identifies the bytes of a persisted document. The empty stamp
// stands for an absent document.
type Stamp string

// StampOf returns the BLAKE3 hex digest of data.
func StampOf(data []byte) Stamp {
	sum := blake3.Sum256(data)
	return Stamp(hex.EncodeToString(sum[:]))
}

// Short returns the first 12 characters, for logs.
func (s Stamp) Short() string {
	if len(s) > 12 {
		return string(s[:12])
	}
	return string(s)
}

// State is the durable part of a faceted project. Runtimes holds every
// targeted runtime, the primary included.
type State struct {
	Installed []*catalog.FacetVersion
	Fixed     []string
	Runtimes  []string
	Primary   string
}

// Equal compares two states as sets.
func (s State) Equal(o State) bool {
	a, b := s.normalized(), o.normalized()
	if a.Primary != b.Primary || !slices.Equal(a.Fixed, b.Fixed) || !slices.Equal(a.Runtimes, b.Runtimes) {
		return false
	}
	return slices.EqualFunc(a.Installed, b.Installed, func(x, y *catalog.FacetVersion) bool { return x.Equal(y) })
}

func (s State) normalized() State {
	out := State{
		Installed: slices.Clone(s.Installed),
		Fixed:     slices.Compact(slices.Sorted(slices.Values(s.Fixed))),
		Runtimes:  slices.Compact(slices.Sorted(slices.Values(s.Runtimes))),
		Primary:   s.Primary,
	}
	catalog.SortVersions(out.Installed)
	return out
}

type document struct {
	XMLName   xml.Name        `xml:"faceted-project"`
	Primary   []runtimeElem   `xml:"runtime"`
	Secondary []runtimeElem   `xml:"secondary-runtime"`
	Fixed     []fixedElem     `xml:"fixed"`
	Installed []installedElem `xml:"installed"`
}

type runtimeElem struct {
	Name string `xml:"name,attr"`
}

type fixedElem struct {
	Facet string `xml:"facet,attr"`
}

type installedElem struct {
	Facet   string `xml:"facet,attr"`
	Version string `xml:"version,attr"`
}

// Encode renders s as the metadata document: primary runtime, secondary
// runtimes, fixed facets, then installed facets, each group sorted.
func Encode(s State) ([]byte, error) {
	n := s.normalized()
	doc := document{}
	if n.Primary != "" {
		doc.Primary = []runtimeElem{{Name: n.Primary}}
	}
	for _, r := range n.Runtimes {
		if r != n.Primary {
			doc.Secondary = append(doc.Secondary, runtimeElem{Name: r})
		}
	}
	for _, f := range n.Fixed {
		doc.Fixed = append(doc.Fixed, fixedElem{Facet: f})
	}
	for _, fv := range n.Installed {
		doc.Installed = append(doc.Installed, installedElem{Facet: fv.FacetID(), Version: fv.Version()})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.InternalError("failed to encode facet metadata").WithCause(err).Build()
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses a metadata document. Facets or versions missing from cat
// become placeholders; malformed documents are parse errors.
func Decode(data []byte, cat catalog.Catalog) (State, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return State{}, errors.ParseError("malformed facet metadata document").WithCause(err).Build()
	}

	var s State
	switch len(doc.Primary) {
	case 0:
	case 1:
		if doc.Primary[0].Name == "" {
			return State{}, parseError("runtime element without name")
		}
		s.Primary = doc.Primary[0].Name
		s.Runtimes = append(s.Runtimes, s.Primary)
	default:
		return State{}, parseError("more than one runtime element")
	}
	for _, r := range doc.Secondary {
		if r.Name == "" {
			return State{}, parseError("secondary-runtime element without name")
		}
		s.Runtimes = append(s.Runtimes, r.Name)
	}
	for _, f := range doc.Fixed {
		if f.Facet == "" {
			return State{}, parseError("fixed element without facet")
		}
		s.Fixed = append(s.Fixed, f.Facet)
	}
	seen := map[string]bool{}
	for _, in := range doc.Installed {
		if in.Facet == "" || in.Version == "" {
			return State{}, parseError("installed element needs facet and version")
		}
		if seen[in.Facet] {
			return State{}, parseError(fmt.Sprintf("facet %q installed more than once", in.Facet))
		}
		seen[in.Facet] = true
		s.Installed = append(s.Installed, catalog.Resolve(cat, in.Facet, in.Version))
	}
	return s.normalized(), nil
}

func parseError(msg string) error {
	return errors.ParseError("invalid facet metadata document").WithContext("detail", msg).
		WithCause(stderrors.New(msg)).Build()
}
