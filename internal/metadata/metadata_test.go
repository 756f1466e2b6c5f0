package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

func testCatalog(t *testing.T) *catalog.Static {
	t.Helper()
	cat, err := catalog.NewBuilder().
		AddFacet("java").AddVersion("java", "1.4").AddVersion("java", "1.5").
		AddFacet("web").AddVersion("web", "2.5").
		AddRuntime("tomcat").AddRuntime("jetty").
		Build()
	require.NoError(t, err)
	return cat
}

func TestEncodeOrder(t *testing.T) {
	cat := testCatalog(t)
	st := State{
		Installed: []*catalog.FacetVersion{catalog.Resolve(cat, "web", "2.5"), catalog.Resolve(cat, "java", "1.5")},
		Fixed:     []string{"web", "java"},
		Runtimes:  []string{"wildfly", "tomcat", "jetty"},
		Primary:   "tomcat",
	}
	data, err := Encode(st)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<faceted-project>
  <runtime name="tomcat"></runtime>
  <secondary-runtime name="jetty"></secondary-runtime>
  <secondary-runtime name="wildfly"></secondary-runtime>
  <fixed facet="java"></fixed>
  <fixed facet="web"></fixed>
  <installed facet="java" version="1.5"></installed>
  <installed facet="web" version="2.5"></installed>
</faceted-project>
`
	assert.Equal(t, want, string(data))
}

func TestRoundTripWithUnknownEntries(t *testing.T) {
	cat := testCatalog(t)
	st := State{
		Installed: []*catalog.FacetVersion{
			catalog.Resolve(cat, "java", "1.5"),
			catalog.Resolve(cat, "web", "9.0"),
			catalog.Resolve(cat, "cobol", "85"),
		},
		Fixed:    []string{"cobol"},
		Runtimes: []string{"tomcat", "mainframe"},
		Primary:  "mainframe",
	}

	data, err := Encode(st)
	require.NoError(t, err)
	got, err := Decode(data, cat)
	require.NoError(t, err)

	assert.True(t, st.Equal(got), "round trip changed state: %+v", got)
	unknown := 0
	for _, fv := range got.Installed {
		if fv.IsUnknown() {
			unknown++
		}
	}
	assert.Equal(t, 2, unknown)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDecodeAcceptsSelfClosingElements(t *testing.T) {
	cat := testCatalog(t)
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<faceted-project>
  <runtime name="tomcat"/>
  <installed facet="java" version="1.5"/>
</faceted-project>`
	st, err := Decode([]byte(doc), cat)
	require.NoError(t, err)
	assert.Equal(t, "tomcat", st.Primary)
	assert.Equal(t, []string{"tomcat"}, st.Runtimes)
	require.Len(t, st.Installed, 1)
	assert.Equal(t, "java@1.5", st.Installed[0].String())
}

func TestDecodeErrors(t *testing.T) {
	cat := testCatalog(t)
	docs := map[string]string{
		"malformed":        `<faceted-project><installed`,
		"wrong root":       `<project/>`,
		"missing version":  `<faceted-project><installed facet="java"/></faceted-project>`,
		"duplicate facet":  `<faceted-project><installed facet="java" version="1.4"/><installed facet="java" version="1.5"/></faceted-project>`,
		"nameless runtime": `<faceted-project><secondary-runtime/></faceted-project>`,
		"two primaries":    `<faceted-project><runtime name="tomcat"/><runtime name="jetty"/></faceted-project>`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc), cat)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryParse), "got %v", err)
		})
	}
}

func TestStoreSaveLoad(t *testing.T) {
	cat := testCatalog(t)
	root := t.TempDir()
	store := NewStore(StorePath(root, ""))
	assert.Equal(t, filepath.Join(root, ".settings", "facets.xml"), store.Path)

	st, stamp, err := store.Load(cat)
	require.NoError(t, err)
	assert.Empty(t, stamp, "absent file has the empty stamp")
	assert.True(t, st.Equal(State{}))

	want := State{Installed: []*catalog.FacetVersion{catalog.Resolve(cat, "java", "1.5")}}
	saved, err := store.Save(want)
	require.NoError(t, err)
	require.NotEmpty(t, saved)

	current, err := store.CurrentStamp()
	require.NoError(t, err)
	assert.Equal(t, saved, current)

	got, loaded, err := store.Load(cat)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
	assert.True(t, want.Equal(got))

	data, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<installed facet="java" version="1.5">`)

	entries, err := os.ReadDir(filepath.Dir(store.Path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temporary file left behind: %s", e.Name())
	}
}

func TestStoreStampTracksContent(t *testing.T) {
	cat := testCatalog(t)
	store := NewStore(filepath.Join(t.TempDir(), "facets.xml"))

	first, err := store.Save(State{Runtimes: []string{"tomcat"}, Primary: "tomcat"})
	require.NoError(t, err)
	second, err := store.Save(State{Runtimes: []string{"tomcat"}, Primary: "tomcat"})
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical content, identical stamp")

	require.NoError(t, os.WriteFile(store.Path, []byte(`<faceted-project><runtime name="jetty"/></faceted-project>`), 0o600))
	edited, err := store.CurrentStamp()
	require.NoError(t, err)
	assert.NotEqual(t, first, edited)

	st, _, err := store.Load(cat)
	require.NoError(t, err)
	assert.Equal(t, "jetty", st.Primary)
}

func TestStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := NewStore(filepath.Join(blocker, "facets.xml"))
	_, err := store.Save(State{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryPersistence))
}

func TestStampShort(t *testing.T) {
	s := StampOf([]byte("abc"))
	assert.Len(t, string(s), 64)
	assert.Equal(t, string(s)[:12], s.Short())
	assert.Equal(t, "", Stamp("").Short())
}
