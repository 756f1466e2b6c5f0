package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

func TestBuilderBuildsCatalog(t *testing.T) {
	noop := DelegateFunc(func(context.Context, Project, *FacetVersion, any) error { return nil })
	cat, err := NewBuilder().
		AddFacet("java", FacetLabel("Java")).
		AddVersion("java", "1.4").
		AddVersion("java", "1.5", WithAction(ActionDefinition{Kind: ActionInstall, Delegate: noop})).
		AddFacet("utility", Universal()).
		AddVersion("utility", "1.0").
		AddRuntime("tomcat", Supports("java", "1.5+")).
		AddRuntime("jetty").
		Build()
	require.NoError(t, err)

	assert.True(t, cat.IsFacetDefined("java"))
	assert.False(t, cat.IsFacetDefined("php"))
	java, ok := cat.Facet("java")
	require.True(t, ok)
	assert.Equal(t, "Java", java.Label())
	assert.True(t, java.HasVersion("1.5"))
	assert.Equal(t, "1.5", java.Latest().Version())
	assert.Len(t, java.Versions(), 2)

	ids := []string{}
	for _, f := range cat.Facets() {
		ids = append(ids, f.ID())
	}
	assert.Equal(t, []string{"java", "utility"}, ids)

	tomcat, ok := cat.Runtime("tomcat")
	require.True(t, ok)
	jetty, _ := cat.Runtime("jetty")
	assert.True(t, tomcat.Supports(Resolve(cat, "java", "1.5")))
	assert.False(t, tomcat.Supports(Resolve(cat, "java", "1.4")))
	assert.True(t, jetty.Supports(Resolve(cat, "utility", "1.0")), "universal facets run everywhere")
	assert.False(t, jetty.Supports(Resolve(cat, "java", "1.5")))
}

func TestBuilderCollectsErrors(t *testing.T) {
	_, err := NewBuilder().
		AddFacet("java").
		AddFacet("java").
		AddVersion("php", "5").
		AddVersion("java", "1.5").
		AddVersion("java", "1.5").
		AddRuntime("tomcat", Supports("java", "[1.0")).
		Build()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryCatalog))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, 4, ce.Context()["problems"])
}

func TestResolvePlaceholders(t *testing.T) {
	cat, err := NewBuilder().AddFacet("java").AddVersion("java", "1.5").Build()
	require.NoError(t, err)

	known := Resolve(cat, "java", "1.5")
	assert.False(t, known.IsUnknown())

	unknownVersion := Resolve(cat, "java", "9.9")
	assert.True(t, unknownVersion.IsUnknown())
	assert.Equal(t, Ref{Facet: "java", Version: "9.9"}, unknownVersion.Ref())
	assert.False(t, unknownVersion.Facet().IsUnknown())

	unknownFacet := Resolve(cat, "cobol", "85")
	assert.True(t, unknownFacet.IsUnknown())
	assert.True(t, unknownFacet.Facet().IsUnknown())
	assert.Equal(t, "cobol@85", unknownFacet.String())

	_, err = Lookup(cat, Ref{Facet: "cobol", Version: "85"})
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	_, err = Lookup(cat, Ref{Facet: "java", Version: "9.9"})
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestActionDefinitionSelectsByFromVersion(t *testing.T) {
	cat, err := NewBuilder().
		AddFacet("java").
		AddVersion("java", "1.3").
		AddVersion("java", "1.4").
		AddVersion("java", "1.5",
			WithAction(ActionDefinition{Kind: ActionVersionChange, From: MustParseVersionExpr("1.4"), Properties: map[string]string{"path": "minor"}}),
			WithAction(ActionDefinition{Kind: ActionVersionChange, Properties: map[string]string{"path": "full"}}),
			WithAction(ActionDefinition{Kind: ActionInstall}),
		).
		Build()
	require.NoError(t, err)
	java15 := Resolve(cat, "java", "1.5")

	def, ok := java15.ActionDefinition([]*FacetVersion{Resolve(cat, "java", "1.4")}, ActionVersionChange)
	require.True(t, ok)
	assert.Equal(t, "minor", def.Properties["path"])

	def, ok = java15.ActionDefinition([]*FacetVersion{Resolve(cat, "java", "1.3")}, ActionVersionChange)
	require.True(t, ok)
	assert.Equal(t, "full", def.Properties["path"])

	_, ok = java15.ActionDefinition(nil, ActionUninstall)
	assert.False(t, ok)
}

func TestActionDefinitionNewConfig(t *testing.T) {
	def := &ActionDefinition{
		Kind:       ActionInstall,
		Properties: map[string]string{"dirs": "src"},
		ConfigFactory: func(props map[string]string) (any, error) {
			props["dirs"] = "mutated"
			return props["dirs"], nil
		},
	}
	cfg, err := def.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "mutated", cfg)
	assert.Equal(t, "src", def.Properties["dirs"], "factories receive a copy")

	cfg, err = (*ActionDefinition)(nil).NewConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSortVersions(t *testing.T) {
	cat, err := NewBuilder().
		AddFacet("web").AddVersion("web", "3.0").AddVersion("web", "2.5").
		AddFacet("java").AddVersion("java", "1.5").
		Build()
	require.NoError(t, err)

	fvs := []*FacetVersion{Resolve(cat, "web", "2.5"), Resolve(cat, "java", "1.5"), Resolve(cat, "web", "3.0")}
	SortVersions(fvs)
	got := []string{}
	for _, fv := range fvs {
		got = append(got, fv.String())
	}
	// declaration order wins over string order within a facet
	assert.Equal(t, []string{"java@1.5", "web@3.0", "web@2.5"}, got)
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("java@1.5")
	require.NoError(t, err)
	assert.Equal(t, Ref{Facet: "java", Version: "1.5"}, ref)

	for _, in := range []string{"java", "@1.5", "java@", ""} {
		_, err := ParseRef(in)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation), in)
	}
}

func TestEventMapping(t *testing.T) {
	assert.Equal(t, EventPreInstall, PreEvent(ActionInstall))
	assert.Equal(t, EventPostUninstall, PostEvent(ActionUninstall))
	assert.Equal(t, EventPreVersionChange, PreEvent(ActionVersionChange))
	assert.Less(t, ActionUninstall.Rank(), ActionVersionChange.Rank())
	assert.Less(t, ActionVersionChange.Rank(), ActionInstall.Rank())
	assert.False(t, ActionKind("bogus").Valid())
}
