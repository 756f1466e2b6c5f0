package project

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/metadata"
)

func TestOpenLoadsExistingDocument(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	first, err := Open(context.Background(), root, f.cat, WithName("web-app"))
	require.NoError(t, err)
	require.NoError(t, first.Modify(context.Background(), action.Install(f.fv("java", "1.5"))))
	require.NoError(t, first.AddTargetedRuntime(context.Background(), "tomcat"))

	second, err := Open(context.Background(), root, f.cat)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), second.Name())
	assert.Equal(t, first.Stamp(), second.Stamp())
	assert.True(t, second.HasFacet("java"))
	assert.Equal(t, []string{"tomcat"}, second.TargetedRuntimes())
}

func TestOpenCustomMetadataPath(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat, WithMetadataPath("conf/facets.xml"))
	require.NoError(t, p.Modify(context.Background(), action.Install(f.fv("java", "1.5"))))

	store := metadata.NewStore(filepath.Join(p.Root(), "conf", "facets.xml"))
	st, _, err := store.Load(f.cat)
	require.NoError(t, err)
	require.Len(t, st.Installed, 1)
}

func TestOpenMalformedDocument(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	p := openProject(t, f.cat)
	writeMetadata(t, p, "not xml at all <")

	_, err := Open(context.Background(), p.Root(), f.cat)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryParse))

	_, err = Open(context.Background(), root, nil)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestSnapshotIsConsistentCopy(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat, WithName("shop"))
	ctx := context.Background()
	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.5")), action.Install(f.fv("web", "2.5"))))
	require.NoError(t, p.SetTargetedRuntimes(ctx, []string{"tomcat", "jetty"}))

	snap := p.Snapshot()
	assert.Equal(t, "shop", snap.Name)
	assert.Equal(t, []string{"jetty", "tomcat"}, snap.Runtimes)
	assert.Equal(t, "jetty", snap.Primary)
	assert.Equal(t, p.Stamp(), snap.Stamp)
	require.Len(t, snap.Installed, 2)

	installed := p.InstalledFacets()
	installed[0] = nil
	assert.NotNil(t, p.InstalledFacets()[0], "readers own their copies")

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"installed":[{"facet":"java","version":"1.5"},{"facet":"web","version":"2.5"}]`)
}
