package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

const sampleDescriptor = `
facets:
  - id: java
    label: Java
    versions:
      - version: "1.4"
      - version: "1.5"
        actions:
          - kind: install
            delegate: record
            config: props
            properties:
              dirs: src
        handlers:
          post-install: [audit]
  - id: web
    groups: [module]
    versions:
      - version: "2.5"
        constraint:
          and:
            - requires: {facet: java, versions: "1.5+"}
            - conflicts: {group: module}
  - id: ejb
    groups: [module]
    versions:
      - version: "3.0"
        constraint:
          or:
            - requires: {facet: java, versions: "1.5"}
            - requires: {facet: web, soft: true}
runtimes:
  - name: ${FACETS_TEST_RUNTIME}
    supports:
      - facet: java
        versions: "[1.4-1.5]"
      - facet: web
`

func testBindings() Bindings {
	return Bindings{
		Delegates: map[string]Delegate{
			"record": DelegateFunc(func(context.Context, Project, *FacetVersion, any) error { return nil }),
		},
		Handlers: map[string]EventHandler{
			"audit": EventHandlerFunc(func(context.Context, Event) error { return nil }),
		},
		ConfigFactories: map[string]ConfigFactory{
			"props": func(p map[string]string) (any, error) { return p, nil },
		},
	}
}

func TestParseDescriptor(t *testing.T) {
	t.Setenv("FACETS_TEST_RUNTIME", "tomcat")

	cat, err := Parse([]byte(sampleDescriptor), testBindings())
	require.NoError(t, err)

	java15 := Resolve(cat, "java", "1.5")
	require.False(t, java15.IsUnknown())
	def, ok := java15.ActionDefinition(nil, ActionInstall)
	require.True(t, ok)
	require.NotNil(t, def.Delegate)
	cfg, err := def.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dirs": "src"}, cfg)
	assert.Len(t, java15.EventHandlers(EventPostInstall), 1)
	assert.Empty(t, java15.EventHandlers(EventPreInstall))

	web := Resolve(cat, "web", "2.5")
	require.NotNil(t, web.Constraint())
	assert.Equal(t, ConstraintAnd, web.Constraint().Kind)
	assert.Equal(t, []string{"java"}, web.Constraint().Requirements())

	ejb := Resolve(cat, "ejb", "3.0")
	assert.Equal(t, []string{"java", "web"}, ejb.Constraint().Requirements())

	rt, ok := cat.Runtime("tomcat")
	require.True(t, ok, "runtime name comes from the environment")
	assert.True(t, rt.Supports(Resolve(cat, "java", "1.4")))
	assert.True(t, rt.Supports(web))
	assert.False(t, rt.Supports(ejb))
}

func TestParseDescriptorErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		category errors.ErrorCategory
	}{
		{"malformed yaml", "facets: [", errors.CategoryParse},
		{"unknown delegate", "facets:\n  - id: a\n    versions:\n      - version: '1'\n        actions:\n          - kind: install\n            delegate: nope\n", errors.CategoryCatalog},
		{"unknown handler", "facets:\n  - id: a\n    versions:\n      - version: '1'\n        handlers:\n          pre-install: [nope]\n", errors.CategoryCatalog},
		{"unknown event type", "facets:\n  - id: a\n    versions:\n      - version: '1'\n        handlers:\n          sometime: [audit]\n", errors.CategoryCatalog},
		{"bad action kind", "facets:\n  - id: a\n    versions:\n      - version: '1'\n        actions:\n          - kind: upgrade\n", errors.CategoryCatalog},
		{"ambiguous constraint", "facets:\n  - id: a\n    versions:\n      - version: '1'\n        constraint:\n          requires: {facet: b}\n          conflicts: {facet: c}\n", errors.CategoryCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), testBindings())
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facets:\n  - id: java\n    versions:\n      - version: '1.5'\n"), 0o600))

	cat, err := LoadFile(path, Bindings{})
	require.NoError(t, err)
	assert.True(t, cat.IsFacetDefined("java"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Bindings{})
	assert.True(t, errors.HasCategory(err, errors.CategoryCatalog))
}
