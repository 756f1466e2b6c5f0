// Package metrics provides observability hooks for faceted project mutations.
//
// Projects record through the Recorder interface. NoopRecorder is the
// default so callers never nil-check; PrometheusRecorder is injected when
// metrics are enabled:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	p, err := project.Open(ctx, root, cat, project.WithRecorder(recorder))
//
// The watch command serves the registry through HTTPHandler.
package metrics
