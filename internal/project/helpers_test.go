package project

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/metadata"
	"git.home.luguber.info/inful/facets/internal/metrics"
)

// delegateLog records delegate and handler calls in order.
type delegateLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *delegateLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *delegateLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// hooks lets a test swap delegate behavior after the catalog is built.
type hooks struct {
	mu      sync.Mutex
	install func(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, cfg any) error
}

func (h *hooks) set(fn func(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, cfg any) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.install = fn
}

func (h *hooks) delegate(log *delegateLog) catalog.Delegate {
	return catalog.DelegateFunc(func(ctx context.Context, p catalog.Project, fv *catalog.FacetVersion, cfg any) error {
		log.add("delegate " + fv.String())
		h.mu.Lock()
		fn := h.install
		h.mu.Unlock()
		if fn != nil {
			return fn(ctx, p, fv, cfg)
		}
		return nil
	})
}

type fixture struct {
	cat   *catalog.Static
	log   *delegateLog
	hooks *hooks
}

// newFixture builds a catalog:
//
//	java 1.4, 1.5; web 2.5 requires java 1.5+; a, b, c 1.0 independent;
//	runtimes tomcat (everything), jetty (java 1.5, web), legacy (java 1.4).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{log: &delegateLog{}, hooks: &hooks{}}
	d := f.hooks.delegate(f.log)
	uninstall := catalog.DelegateFunc(func(_ context.Context, _ catalog.Project, fv *catalog.FacetVersion, _ any) error {
		f.log.add("undelegate " + fv.String())
		return nil
	})
	install := catalog.WithAction(catalog.ActionDefinition{Kind: catalog.ActionInstall, Delegate: d})
	remove := catalog.WithAction(catalog.ActionDefinition{Kind: catalog.ActionUninstall, Delegate: uninstall})
	change := catalog.WithAction(catalog.ActionDefinition{Kind: catalog.ActionVersionChange, Delegate: d})

	b := catalog.NewBuilder().
		AddFacet("java").
		AddVersion("java", "1.4", install, remove, change).
		AddVersion("java", "1.5", install, remove, change).
		AddFacet("web").
		AddVersion("web", "2.5", install, remove,
			catalog.WithConstraint(catalog.Requires("java", catalog.MustParseVersionExpr("1.5+")))).
		AddRuntime("tomcat", catalog.Supports("java", "*"), catalog.Supports("web", "*"),
			catalog.Supports("a", "*"), catalog.Supports("b", "*"), catalog.Supports("c", "*")).
		AddRuntime("jetty", catalog.Supports("java", "1.5"), catalog.Supports("web", "*")).
		AddRuntime("legacy", catalog.Supports("java", "1.4"))
	for _, id := range []string{"a", "b", "c"} {
		b.AddFacet(id).AddVersion(id, "1.0", install, remove)
	}
	cat, err := b.Build()
	require.NoError(t, err)
	f.cat = cat
	return f
}

func (f *fixture) fv(facet, version string) *catalog.FacetVersion {
	return catalog.Resolve(f.cat, facet, version)
}

func openProject(t *testing.T, cat catalog.Catalog, opts ...Option) *FacetedProject {
	t.Helper()
	p, err := Open(context.Background(), t.TempDir(), cat, opts...)
	require.NoError(t, err)
	return p
}

func readMetadata(t *testing.T, p *FacetedProject) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.Root(), filepath.FromSlash(metadata.DefaultPath)))
	require.NoError(t, err)
	return string(data)
}

// counter is a Listener counting notifications.
type counter struct{ n atomic.Int32 }

func (c *counter) ProjectChanged() { c.n.Add(1) }
func (c *counter) count() int      { return int(c.n.Load()) }

// flakyStore fails Save while failing is set.
type flakyStore struct {
	*metadata.Store
	failing atomic.Bool
}

func (s *flakyStore) Save(st metadata.State) (metadata.Stamp, error) {
	if s.failing.Load() {
		return "", errors.PersistenceError("disk full").Build()
	}
	return s.Store.Save(st)
}

// fakeRecorder counts the recorder calls tests assert on.
type fakeRecorder struct {
	metrics.NoopRecorder
	mu               sync.Mutex
	outcomes         map[metrics.OutcomeLabel]int
	listenerFailures int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: map[metrics.OutcomeLabel]int{}}
}

func (r *fakeRecorder) IncModifyOutcome(_ string, o metrics.OutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *fakeRecorder) IncListenerFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listenerFailures++
}

func (r *fakeRecorder) outcome(o metrics.OutcomeLabel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[o]
}

func (r *fakeRecorder) failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listenerFailures
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond, msg)
}
