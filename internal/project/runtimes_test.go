package project

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/constraint"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

func TestFixedFacetInvariant(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	ctx := context.Background()
	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.4"))))
	require.NoError(t, p.SetFixedFacets(ctx, []string{"java"}))
	assert.True(t, p.IsFixed("java"))
	assert.Contains(t, readMetadata(t, p), `<fixed facet="java"></fixed>`)

	for _, a := range []action.Action{action.Uninstall(f.fv("java", "1.4")), action.VersionChange(f.fv("java", "1.5"))} {
		err := p.Modify(ctx, a)
		require.Error(t, err, a.String())
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		v, ok := p.InstalledVersion("java")
		require.True(t, ok)
		assert.Equal(t, "1.4", v.Version())
	}

	err := p.SetFixedFacets(ctx, []string{"java", "cobol"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, []string{"java"}, p.FixedFacets())
}

func TestRuntimeSupportInvariant(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	ctx := context.Background()
	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.4"))))
	require.NoError(t, p.AddTargetedRuntime(ctx, "tomcat"))

	err := p.AddTargetedRuntime(ctx, "jetty")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	var verr *constraint.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, constraint.CodeUnsupported, verr.Problems[0].Code)
	assert.Equal(t, []string{"tomcat"}, p.TargetedRuntimes())

	err = p.SetTargetedRuntimes(ctx, []string{"tomcat", "nowhere"})
	require.Error(t, err)
	assert.Equal(t, []string{"tomcat"}, p.TargetedRuntimes())

	// installing something a targeted runtime cannot host is rejected too
	require.NoError(t, p.AddTargetedRuntime(ctx, "legacy"))
	err = p.Modify(ctx, action.Install(f.fv("a", "1.0")))
	require.Error(t, err)
	assert.False(t, p.HasFacet("a"))
}

func TestPrimaryRuntimeReassignment(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	var events []catalog.Event
	rec := catalog.EventHandlerFunc(func(_ context.Context, ev catalog.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return nil
	})
	p := openProject(t, f.cat, WithEventHandler(catalog.EventRuntimeChanged, rec))
	ctx := context.Background()
	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.5")), action.Install(f.fv("web", "2.5"))))

	require.NoError(t, p.SetTargetedRuntimes(ctx, []string{"tomcat", "jetty"}))
	primary, ok := p.PrimaryRuntime()
	require.True(t, ok)
	assert.Equal(t, "jetty", primary, "first targeted runtime by name")
	assert.Len(t, events, 2, "one runtime-changed event per installed facet")
	assert.Equal(t, "", events[0].OldPrimary)
	assert.Equal(t, "jetty", events[0].NewPrimary)

	require.NoError(t, p.SetPrimaryRuntime(ctx, "tomcat"))
	require.NoError(t, p.SetPrimaryRuntime(ctx, "tomcat"))
	assert.Len(t, events, 4, "unchanged primary fires nothing")

	err := p.SetPrimaryRuntime(ctx, "legacy")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	require.NoError(t, p.RemoveTargetedRuntime(ctx, "tomcat"))
	primary, ok = p.PrimaryRuntime()
	require.True(t, ok)
	assert.Equal(t, "jetty", primary)
	assert.Equal(t, "tomcat", events[len(events)-1].OldPrimary)

	require.NoError(t, p.RemoveTargetedRuntime(ctx, "jetty"))
	_, ok = p.PrimaryRuntime()
	assert.False(t, ok, "no primary without targeted runtimes")
	assert.Empty(t, p.TargetedRuntimes())
	assert.Equal(t, "", events[len(events)-1].NewPrimary)

	doc := readMetadata(t, p)
	assert.NotContains(t, doc, "<runtime")
}

func TestRuntimeMutatorsPersistAndNotify(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	listener := &counter{}
	p.AddListener(listener)
	var projectEvents []catalog.EventType
	handler := catalog.EventHandlerFunc(func(_ context.Context, ev catalog.Event) error {
		projectEvents = append(projectEvents, ev.Type)
		return nil
	})
	p2 := openProject(t, f.cat,
		WithEventHandler(catalog.EventTargetedRuntimesChanged, handler),
		WithEventHandler(catalog.EventFixedFacetsChanged, handler))
	ctx := context.Background()

	require.NoError(t, p.AddTargetedRuntime(ctx, "tomcat"))
	require.NoError(t, p.AddTargetedRuntime(ctx, "jetty"))
	require.NoError(t, p.AddTargetedRuntime(ctx, "jetty"))
	require.NoError(t, p.RemoveTargetedRuntime(ctx, "legacy"))
	assert.Equal(t, 2, listener.count(), "no-op changes do not notify")

	doc := readMetadata(t, p)
	assert.Contains(t, doc, `<runtime name="tomcat"></runtime>`)
	assert.Contains(t, doc, `<secondary-runtime name="jetty"></secondary-runtime>`)

	require.NoError(t, p2.SetFixedFacets(ctx, []string{"java"}))
	require.NoError(t, p2.SetTargetedRuntimes(ctx, []string{"tomcat"}))
	assert.Equal(t, []catalog.EventType{catalog.EventFixedFacetsChanged, catalog.EventTargetedRuntimesChanged}, projectEvents)
}
