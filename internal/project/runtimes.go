package project

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/constraint"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
	"git.home.luguber.info/inful/facets/internal/util/sets"
)

// SetFixedFacets replaces the fixed facet set. Every ID must be defined in
// the catalog.
func (p *FacetedProject) SetFixedFacets(ctx context.Context, facetIDs []string) error {
	return p.mutate(ctx, "set-fixed-facets", func(next *state) error {
		fixed := sets.New(facetIDs...)
		for _, id := range sets.Sorted(fixed) {
			if !p.cat.IsFacetDefined(id) {
				return errors.ValidationError(fmt.Sprintf("cannot fix undefined facet %q", id)).
					WithContext("facet", id).Build()
			}
		}
		next.fixed = fixed
		return nil
	})
}

// SetTargetedRuntimes replaces the targeted runtime set.
func (p *FacetedProject) SetTargetedRuntimes(ctx context.Context, names []string) error {
	return p.mutate(ctx, "set-targeted-runtimes", func(next *state) error {
		return p.retarget(next, sets.New(names...))
	})
}

// AddTargetedRuntime targets one more runtime. Adding a targeted runtime is a no-op.
func (p *FacetedProject) AddTargetedRuntime(ctx context.Context, name string) error {
	return p.mutate(ctx, "add-targeted-runtime", func(next *state) error {
		targeted := next.runtimes.Clone()
		targeted.Add(name)
		return p.retarget(next, targeted)
	})
}

// RemoveTargetedRuntime stops targeting name. Removing the primary runtime
// promotes the first remaining runtime by name.
func (p *FacetedProject) RemoveTargetedRuntime(ctx context.Context, name string) error {
	return p.mutate(ctx, "remove-targeted-runtime", func(next *state) error {
		targeted := next.runtimes.Clone()
		targeted.Delete(name)
		return p.retarget(next, targeted)
	})
}

// SetPrimaryRuntime selects the primary among the targeted runtimes.
func (p *FacetedProject) SetPrimaryRuntime(ctx context.Context, name string) error {
	return p.mutate(ctx, "set-primary-runtime", func(next *state) error {
		if name == "" && next.runtimes.Len() == 0 {
			next.primary = ""
			return nil
		}
		if !next.runtimes.Has(name) {
			return errors.ValidationError(fmt.Sprintf("primary runtime %q is not targeted", name)).
				WithContext("runtime", name).Build()
		}
		next.primary = name
		return nil
	})
}

// retarget validates the runtimes that targeted adds and re-derives the primary.
func (p *FacetedProject) retarget(next *state, targeted sets.Set[string]) error {
	var added []string
	for _, name := range sets.Sorted(targeted) {
		if next.runtimes.Has(name) {
			continue
		}
		if !p.cat.IsRuntimeDefined(name) {
			return errors.ValidationError(fmt.Sprintf("runtime %q is not defined", name)).
				WithContext("runtime", name).Build()
		}
		added = append(added, name)
	}
	if err := constraint.CheckRuntimes(p.cat, next.installedList(), added).Err(); err != nil {
		return err
	}
	next.runtimes = targeted
	next.primary = derivePrimary(next.primary, targeted)
	return nil
}

// mutate is the skeleton shared by the runtime and fixed-facet setters:
// acquire, validate on a clone, publish, save, fire events, release, notify.
// A change that leaves the state as it was is a no-op.
func (p *FacetedProject) mutate(ctx context.Context, op string, change func(next *state) error) (err error) {
	start := time.Now()
	opID := uuid.NewString()
	log := p.logger.With(logfields.OperationID(opID))

	mctx, release, err := p.acquire(ctx)
	if err != nil {
		p.recorder.IncModifyOutcome(op, outcomeOf(err))
		return err
	}
	changed := false
	defer func() {
		release()
		if changed {
			p.notifyListeners()
		}
		p.recorder.ObserveModifyDuration(op, time.Since(start))
		p.recorder.IncModifyOutcome(op, outcomeOf(err))
	}()

	prev := p.current()
	next := prev.clone()
	if err := change(next); err != nil {
		log.InfoContext(mctx, "Project change rejected", logfields.Action(op), logfields.Error(err))
		return err
	}
	fixedChanged := !prev.fixed.Equal(next.fixed)
	runtimesChanged := !prev.runtimes.Equal(next.runtimes)
	primaryChanged := prev.primary != next.primary
	if !fixedChanged && !runtimesChanged && !primaryChanged {
		return nil
	}

	p.publish(next, nil)
	changed = true
	if err := p.persist(next); err != nil {
		return err
	}

	base := catalog.Event{OperationID: opID, Project: p, OldPrimary: prev.primary, NewPrimary: next.primary}
	if fixedChanged {
		ev := base
		ev.Type = catalog.EventFixedFacetsChanged
		ev.Fixed = sets.Sorted(next.fixed)
		if err := p.fire(mctx, ev); err != nil {
			return handlerError(op, PhasePostEvent, err)
		}
	}
	if runtimesChanged {
		ev := base
		ev.Type = catalog.EventTargetedRuntimesChanged
		ev.Runtimes = sets.Sorted(next.runtimes)
		if err := p.fire(mctx, ev); err != nil {
			return handlerError(op, PhasePostEvent, err)
		}
	}
	if primaryChanged {
		for _, fv := range next.installedList() {
			ev := base
			ev.Type = catalog.EventRuntimeChanged
			ev.Version = fv
			ev.Runtimes = sets.Sorted(next.runtimes)
			if err := p.fire(mctx, ev); err != nil {
				return handlerError(op, PhasePostEvent, err)
			}
		}
	}

	log.InfoContext(mctx, "Project settings updated",
		logfields.Action(op),
		logfields.Runtime(next.primary),
		logfields.Count(next.runtimes.Len()),
		slog.Any("fixed", sets.Sorted(next.fixed)))
	return nil
}
