package metrics

import "time"

// ResultLabel enumerates per-action result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel enumerates the final status of one mutation call.
type OutcomeLabel string

const (
	OutcomeSuccess           OutcomeLabel = "success"
	OutcomeValidationFailed  OutcomeLabel = "validation_failed"
	OutcomeDelegateFailed    OutcomeLabel = "delegate_failed"
	OutcomePersistenceFailed OutcomeLabel = "persistence_failed"
	OutcomeRejected          OutcomeLabel = "rejected"
	OutcomeCanceled          OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for project mutations. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveModifyDuration(op string, d time.Duration)
	ObserveLockWait(d time.Duration)
	IncModifyOutcome(op string, outcome OutcomeLabel)
	IncActionResult(kind string, result ResultLabel)
	IncListenerFailure()
	IncRefresh(reloaded bool)
	SetInstalledFacets(project string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveModifyDuration(string, time.Duration) {}
func (NoopRecorder) ObserveLockWait(time.Duration)               {}
func (NoopRecorder) IncModifyOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncActionResult(string, ResultLabel)         {}
func (NoopRecorder) IncListenerFailure()                         {}
func (NoopRecorder) IncRefresh(bool)                             {}
func (NoopRecorder) SetInstalledFacets(string, int)              {}
