package project

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/facets/internal/action"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/metrics"
)

// ErrConcurrentModification is returned when a mutator is called from inside
// a running mutation of the same project.
var ErrConcurrentModification = errors.ConcurrencyError("faceted project is already being modified by this caller").Build()

// Phases reported in the "phase" context of delegate errors.
const (
	PhaseConfig    = "config"
	PhasePreEvent  = "pre-event"
	PhaseDelegate  = "delegate"
	PhasePostEvent = "post-event"
)

func delegateError(phase string, a action.Action, cause error) error {
	return errors.DelegateError(fmt.Sprintf("%s of %s failed in %s", a.Kind, a.Version, phase)).
		WithCause(cause).
		WithContext("kind", string(a.Kind)).
		WithContext("facet", a.FacetID()).
		WithContext("version", a.Version.Version()).
		WithContext("phase", phase).
		Build()
}

func handlerError(op, phase string, cause error) error {
	return errors.DelegateError(fmt.Sprintf("%s failed in %s", op, phase)).
		WithCause(cause).
		WithContext("phase", phase).
		Build()
}

func canceledError(cause error, remaining int) error {
	return errors.WrapError(cause, errors.CategoryRuntime, "project modification canceled").
		WithContext("remaining_actions", remaining).
		Build()
}

// recovered runs fn and turns a panic into an error.
func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// outcomeOf maps a mutation error to its metrics label.
func outcomeOf(err error) metrics.OutcomeLabel {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case stderrors.Is(err, ErrConcurrentModification):
		return metrics.OutcomeRejected
	case errors.HasCategory(err, errors.CategoryValidation):
		return metrics.OutcomeValidationFailed
	case errors.HasCategory(err, errors.CategoryPersistence):
		return metrics.OutcomePersistenceFailed
	default:
		return metrics.OutcomeDelegateFailed
	}
}
