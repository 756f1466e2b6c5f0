package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/metadata"
)

func writeMetadata(t *testing.T, p *FacetedProject, doc string) {
	t.Helper()
	path := filepath.Join(p.Root(), filepath.FromSlash(metadata.DefaultPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
}

func TestRefreshReloadsExternalEdit(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	listener := &counter{}
	p.AddListener(listener)
	ctx := context.Background()

	reloaded, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded, "nothing on disk, nothing loaded")

	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.5"))))
	reloaded, err = p.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded, "own save is not an external change")

	writeMetadata(t, p, `<faceted-project>
  <runtime name="tomcat"/>
  <fixed facet="java"/>
  <installed facet="java" version="1.4"/>
  <installed facet="cobol" version="85"/>
</faceted-project>`)

	reloaded, err = p.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, 2, listener.count())

	v, ok := p.InstalledVersion("java")
	require.True(t, ok)
	assert.Equal(t, "1.4", v.Version())
	cobol, ok := p.InstalledVersion("cobol")
	require.True(t, ok)
	assert.True(t, cobol.IsUnknown())
	assert.Equal(t, []string{"java"}, p.FixedFacets())
	primary, _ := p.PrimaryRuntime()
	assert.Equal(t, "tomcat", primary)

	reloaded, err = p.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded)

	require.NoError(t, os.Remove(filepath.Join(p.Root(), filepath.FromSlash(metadata.DefaultPath))))
	reloaded, err = p.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded, "a deleted document is a change")
	assert.Empty(t, p.InstalledFacets())
}

func TestRefreshParseErrorKeepsState(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	ctx := context.Background()
	require.NoError(t, p.Modify(ctx, action.Install(f.fv("java", "1.5"))))

	writeMetadata(t, p, `<faceted-project><installed facet=`)
	reloaded, err := p.Refresh(ctx)
	require.Error(t, err)
	assert.False(t, reloaded)
	assert.True(t, errors.HasCategory(err, errors.CategoryParse))
	assert.True(t, p.HasFacet("java"))
}

func TestRefreshSkippedDuringModification(t *testing.T) {
	f := newFixture(t)
	p := openProject(t, f.cat)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var inside bool
	var insideErr error
	f.hooks.set(func(ctx context.Context, _ catalog.Project, _ *catalog.FacetVersion, _ any) error {
		writeMetadata(t, p, `<faceted-project><installed facet="a" version="1.0"/></faceted-project>`)
		inside, insideErr = p.Refresh(ctx)
		close(entered)
		<-unblock
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- p.Modify(context.Background(), action.Install(f.fv("java", "1.5"))) }()
	<-entered

	reloaded, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, reloaded, "refresh from another caller is skipped while modifying")
	close(unblock)
	require.NoError(t, <-done)

	require.NoError(t, insideErr)
	assert.False(t, inside, "refresh from inside the modification is skipped")
	assert.True(t, p.HasFacet("java"))
	assert.False(t, p.HasFacet("a"), "the in-flight save won over the external edit")
}
