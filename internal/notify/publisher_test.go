package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/project"
	"git.home.luguber.info/inful/facets/internal/retry"
)

type fakeConn struct {
	mu       sync.Mutex
	subjects []string
	bodies   [][]byte
	err      error
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.bodies = append(c.bodies, data)
	return nil
}

type staticSource struct{ snap project.Snapshot }

func (s *staticSource) Snapshot() project.Snapshot { return s.snap }

func TestPublisherSendsSnapshots(t *testing.T) {
	conn := &fakeConn{}
	src := &staticSource{snap: project.Snapshot{Name: "web.shop", Primary: "tomcat", Runtimes: []string{"tomcat"}}}
	p := NewPublisher(conn, src, "", nil)
	assert.Equal(t, "facets.changed.web_shop", p.Subject())

	p.ProjectChanged()
	src.snap.Installed = []catalog.Ref{{Facet: "java", Version: "1.5"}}
	p.ProjectChanged()

	require.Len(t, conn.bodies, 2)
	var last Message
	require.NoError(t, json.Unmarshal(conn.bodies[1], &last))
	assert.Equal(t, uint64(2), last.Sequence)
	assert.Equal(t, "web.shop", last.Snapshot.Name)
	assert.Equal(t, []catalog.Ref{{Facet: "java", Version: "1.5"}}, last.Snapshot.Installed)
	assert.False(t, last.PublishedAt.IsZero())
}

func TestPublisherErrors(t *testing.T) {
	conn := &fakeConn{err: stderrors.New("connection closed")}
	p := NewPublisher(conn, &staticSource{}, "custom", nil)
	assert.Equal(t, "custom._", p.Subject())

	err := p.Publish()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))

	assert.NotPanics(t, p.ProjectChanged)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "p.a_b_c", Subject("p", "a*b>c"))
	assert.Equal(t, "p.my_app", Subject("p", "my app"))
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	policy := retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1)
	_, err := ConnectWithRetry(context.Background(), "nats://127.0.0.1:1", "test", policy)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}
