package project

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/constraint"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/metrics"
)

// Modify validates actions against the current state, orders them and runs
// each one: config resolution, pre-event handlers, delegate, apply, save,
// post-event handlers. Listeners are notified once after the modification
// slot is released if at least one action was applied.
func (p *FacetedProject) Modify(ctx context.Context, actions ...action.Action) error {
	return p.run(ctx, "modify", func(*state) []action.Action { return actions })
}

// Apply changes the installed facets to exactly desired. The actions are
// computed from the state seen after the modification slot is taken.
func (p *FacetedProject) Apply(ctx context.Context, desired []*catalog.FacetVersion) error {
	return p.run(ctx, "apply", func(st *state) []action.Action {
		return action.Compute(st.installedList(), desired)
	})
}

func (p *FacetedProject) run(ctx context.Context, op string, plan func(*state) []action.Action) (err error) {
	start := time.Now()
	opID := uuid.NewString()
	log := p.logger.With(logfields.OperationID(opID))

	mctx, release, err := p.acquire(ctx)
	if err != nil {
		p.recorder.IncModifyOutcome(op, outcomeOf(err))
		return err
	}

	applied := 0
	defer func() {
		release()
		if applied > 0 {
			p.notifyListeners()
		}
		p.recorder.ObserveModifyDuration(op, time.Since(start))
		p.recorder.IncModifyOutcome(op, outcomeOf(err))
	}()

	cur := p.current()
	actions := plan(cur)
	if len(actions) == 0 {
		return nil
	}

	in := p.input(cur)
	res := constraint.Validate(in, actions)
	for _, w := range res.Warnings() {
		log.WarnContext(mctx, "Facet validation warning", slog.String("code", w.Code), slog.String("message", w.Message))
	}
	if err := res.Err(); err != nil {
		log.InfoContext(mctx, "Facet modification rejected", logfields.Count(len(res.Errors())), logfields.Error(err))
		return err
	}
	ordered, err := constraint.Sort(in, actions)
	if err != nil {
		return err
	}

	for i, a := range ordered {
		if cerr := mctx.Err(); cerr != nil {
			log.WarnContext(mctx, "Facet modification canceled", logfields.Count(len(ordered)-i))
			return canceledError(cerr, len(ordered)-i)
		}
		done, aerr := p.execute(mctx, opID, a, log)
		if done {
			applied++
		}
		if aerr != nil {
			result := metrics.ResultFailed
			if outcomeOf(aerr) == metrics.OutcomeCanceled {
				result = metrics.ResultCanceled
			}
			p.recorder.IncActionResult(string(a.Kind), result)
			log.ErrorContext(mctx, "Facet action failed",
				logfields.Action(string(a.Kind)),
				logfields.Facet(a.FacetID()),
				logfields.Version(a.Version.Version()),
				slog.Int("applied", applied),
				logfields.Error(aerr))
			return aerr
		}
		p.recorder.IncActionResult(string(a.Kind), metrics.ResultSuccess)
	}

	log.InfoContext(mctx, "Facet modification complete",
		logfields.Count(applied),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// execute runs one action. done reports whether the in-memory state changed,
// which stays true when saving or a post-event handler fails.
func (p *FacetedProject) execute(ctx context.Context, opID string, a action.Action, log *slog.Logger) (done bool, err error) {
	cur := p.current()
	def, _ := a.Version.ActionDefinition(cur.installedList(), a.Kind)

	cfg := a.Config
	if cfg == nil {
		if cfg, err = def.NewConfig(); err != nil {
			return false, delegateError(PhaseConfig, a, err)
		}
	}
	if v, ok := cfg.(interface{ Validate() error }); ok {
		if verr := v.Validate(); verr != nil {
			return false, errors.ValidationError("invalid configuration for "+a.String()).
				WithCause(verr).
				WithContext("kind", string(a.Kind)).
				WithContext("facet", a.FacetID()).
				WithContext("version", a.Version.Version()).
				WithContext("phase", PhaseConfig).
				Build()
		}
	}

	ev := catalog.Event{OperationID: opID, Project: p, Version: a.Version, Config: cfg}

	ev.Type = catalog.PreEvent(a.Kind)
	if err := p.fire(ctx, ev); err != nil {
		return false, delegateError(PhasePreEvent, a, err)
	}

	if def != nil && def.Delegate != nil {
		err := recovered(func() error { return def.Delegate.Execute(ctx, p, a.Version, cfg) })
		if err != nil {
			return false, delegateError(PhaseDelegate, a, err)
		}
	}

	next := p.current().clone()
	switch a.Kind {
	case action.KindUninstall:
		delete(next.installed, a.FacetID())
	default:
		next.installed[a.FacetID()] = a.Version
	}
	p.publish(next, nil)

	if err := p.persist(next); err != nil {
		return true, err
	}

	ev.Type = catalog.PostEvent(a.Kind)
	if err := p.fire(ctx, ev); err != nil {
		return true, delegateError(PhasePostEvent, a, err)
	}

	log.DebugContext(ctx, "Facet action applied",
		logfields.Action(string(a.Kind)),
		logfields.Facet(a.FacetID()),
		logfields.Version(a.Version.Version()),
		logfields.Stamp(p.Stamp().Short()))
	return true, nil
}
