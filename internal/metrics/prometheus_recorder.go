package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	modifyDuration   *prom.HistogramVec
	lockWait         prom.Histogram
	modifyOutcomes   *prom.CounterVec
	actionResults    *prom.CounterVec
	listenerFailures prom.Counter
	refreshes        *prom.CounterVec
	installedFacets  *prom.GaugeVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.modifyDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "facets",
			Name:      "modify_duration_seconds",
			Help:      "Duration of project mutation calls, lock wait included",
			Buckets:   prom.DefBuckets,
		}, []string{"op"})
		pr.lockWait = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "facets",
			Name:      "modify_lock_wait_seconds",
			Help:      "Time spent waiting for the project modification slot",
			Buckets:   prom.DefBuckets,
		})
		pr.modifyOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "facets",
			Name:      "modify_outcomes_total",
			Help:      "Mutation calls by operation and final status",
		}, []string{"op", "outcome"})
		pr.actionResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "facets",
			Name:      "action_results_total",
			Help:      "Executed facet actions by kind and result",
		}, []string{"kind", "result"})
		pr.listenerFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: "facets",
			Name:      "listener_failures_total",
			Help:      "Project listeners that panicked during notification",
		})
		pr.refreshes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "facets",
			Name:      "refreshes_total",
			Help:      "Refresh calls by whether the metadata was reloaded",
		}, []string{"reloaded"})
		pr.installedFacets = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "facets",
			Name:      "installed_facets",
			Help:      "Number of installed facets per project",
		}, []string{"project"})
		reg.MustRegister(pr.modifyDuration, pr.lockWait, pr.modifyOutcomes, pr.actionResults,
			pr.listenerFailures, pr.refreshes, pr.installedFacets)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveModifyDuration(op string, d time.Duration) {
	if p == nil || p.modifyDuration == nil {
		return
	}
	p.modifyDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveLockWait(d time.Duration) {
	if p == nil || p.lockWait == nil {
		return
	}
	p.lockWait.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncModifyOutcome(op string, outcome OutcomeLabel) {
	if p == nil || p.modifyOutcomes == nil {
		return
	}
	p.modifyOutcomes.WithLabelValues(op, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncActionResult(kind string, result ResultLabel) {
	if p == nil || p.actionResults == nil {
		return
	}
	p.actionResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncListenerFailure() {
	if p == nil || p.listenerFailures == nil {
		return
	}
	p.listenerFailures.Inc()
}

func (p *PrometheusRecorder) IncRefresh(reloaded bool) {
	if p == nil || p.refreshes == nil {
		return
	}
	p.refreshes.WithLabelValues(strconv.FormatBool(reloaded)).Inc()
}

func (p *PrometheusRecorder) SetInstalledFacets(project string, n int) {
	if p == nil || p.installedFacets == nil {
		return
	}
	p.installedFacets.WithLabelValues(project).Set(float64(n))
}
