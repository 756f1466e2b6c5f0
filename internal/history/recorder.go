package history

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Recorded lists the event types a Recorder stores: completed transitions and
// project setting changes.
var Recorded = []catalog.EventType{
	catalog.EventPostInstall,
	catalog.EventPostUninstall,
	catalog.EventPostVersionChange,
	catalog.EventRuntimeChanged,
	catalog.EventTargetedRuntimesChanged,
	catalog.EventFixedFacetsChanged,
}

// Recorder is an event handler that appends every event it sees to a Store.
// Store failures are logged and never veto the transition.
type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

func (r *Recorder) HandleEvent(ctx context.Context, ev catalog.Event) error {
	e := EntryFromEvent(ev, r.now())
	if err := r.store.Append(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "Failed to record facet history",
			logfields.EventType(string(ev.Type)),
			logfields.OperationID(ev.OperationID),
			logfields.Error(err))
	}
	return nil
}
