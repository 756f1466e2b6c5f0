// Package notify broadcasts faceted project changes over NATS so that tools
// outside the process can follow a project without polling its metadata.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/project"
	"git.home.luguber.info/inful/facets/internal/retry"
)

// DefaultSubjectPrefix is prepended to the project name to form the subject.
const DefaultSubjectPrefix = "facets.changed"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Source supplies the state to broadcast.
type Source interface {
	Snapshot() project.Snapshot
}

// Message is the JSON body of a change notification.
type Message struct {
	Sequence    uint64           `json:"sequence"`
	PublishedAt time.Time        `json:"published_at"`
	Snapshot    project.Snapshot `json:"snapshot"`
}

// Publisher is a project listener that publishes a snapshot on every change.
type Publisher struct {
	conn    Conn
	source  Source
	subject string
	logger  *slog.Logger
	seq     atomic.Uint64
}

// NewPublisher returns a publisher for source. An empty prefix uses
// DefaultSubjectPrefix.
func NewPublisher(conn Conn, source Source, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:    conn,
		source:  source,
		subject: Subject(prefix, source.Snapshot().Name),
		logger:  logger,
	}
}

// Subject builds a NATS subject from prefix and a project name. Characters
// NATS treats as tokens or wildcards are replaced.
func Subject(prefix, name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "_"
	}
	return prefix + "." + clean
}

// ProjectChanged publishes the current snapshot.
func (p *Publisher) ProjectChanged() {
	if err := p.Publish(); err != nil {
		p.logger.Warn("Failed to publish project change", logfields.Subject(p.subject), logfields.Error(err))
	}
}

// Publish sends the current snapshot once.
func (p *Publisher) Publish() error {
	msg := Message{
		Sequence:    p.seq.Add(1),
		PublishedAt: time.Now().UTC(),
		Snapshot:    p.source.Snapshot(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.InternalError("failed to marshal change notification").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish change notification").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	p.logger.Debug("Published project change", logfields.Subject(p.subject), slog.Uint64("sequence", msg.Sequence))
	return nil
}

// Subject returns the subject messages are published on.
func (p *Publisher) Subject() string { return p.subject }

// ConnectWithRetry dials NATS, retrying the initial connection per policy.
func ConnectWithRetry(ctx context.Context, url, clientName string, policy retry.Policy) (*nats.Conn, error) {
	var conn *nats.Conn
	err := policy.Do(ctx, func(attempt int) error {
		var err error
		conn, err = Connect(url, clientName)
		if err != nil && attempt < policy.MaxRetries {
			slog.WarnContext(ctx, "NATS connection failed, retrying", slog.Int("attempt", attempt+1), logfields.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Connect dials NATS with reconnects enabled.
func Connect(url, clientName string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	return conn, nil
}
