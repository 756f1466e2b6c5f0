package metrics

import (
	"testing"
	"time"
)

func TestNoopRecorderSatisfiesRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveModifyDuration("modify", time.Second)
	r.ObserveLockWait(time.Millisecond)
	r.IncModifyOutcome("modify", OutcomeRejected)
	r.IncActionResult("install", ResultCanceled)
	r.IncListenerFailure()
	r.IncRefresh(false)
	r.SetInstalledFacets("web", 0)
}
