// Package catalog holds the read-only facet, version and runtime definitions
// a faceted project is checked against.
//
// A Catalog is built once (programmatically with a Builder or from a YAML
// descriptor with Parse/LoadFile) and never changes afterwards, so it is
// safe for concurrent use without locking.
//
// Facet versions that are referenced by persisted project metadata but not
// defined in the catalog are represented by placeholders (see Resolve). A
// placeholder reports IsUnknown() and is never supported by any runtime.
package catalog
