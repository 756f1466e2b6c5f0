package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Poller refreshes a project on a fixed interval.
type Poller struct {
	scheduler gocron.Scheduler
	target    Refresher
	logger    *slog.Logger
}

// NewPoller schedules Refresh every interval. Call Start to begin.
func NewPoller(interval time.Duration, target Refresher, logger *slog.Logger) (*Poller, error) {
	if interval <= 0 {
		return nil, errors.ValidationError("poll interval must be positive").WithContext("interval", interval.String()).Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.InternalError("failed to create scheduler").WithCause(err).Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{scheduler: s, target: target, logger: logger}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.poll),
		gocron.WithName("facet-metadata-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.InternalError("failed to schedule metadata poll").WithCause(err).Build()
	}
	return p, nil
}

// Start begins polling.
func (p *Poller) Start() {
	p.logger.Info("Starting metadata poller")
	p.scheduler.Start()
}

// Stop waits for a running poll and stops the scheduler.
func (p *Poller) Stop() error {
	p.logger.Info("Stopping metadata poller")
	return p.scheduler.Shutdown()
}

// Run starts polling and stops when ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.Start()
	<-ctx.Done()
	return p.Stop()
}

func (p *Poller) poll(ctx context.Context) {
	start := time.Now()
	reloaded, err := p.target.Refresh(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Scheduled refresh failed", logfields.Error(err))
		return
	}
	if reloaded {
		p.logger.InfoContext(ctx, "Scheduled refresh reloaded project",
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	}
}
