// Package metrics records run and stage metrics.
//
// Components receive a Recorder through their options and default to NoopRecorder, so
// metrics can be enabled without nil checks at call sites:
//
//	reg := prometheus.NewRegistry()
//	runner := pipeline.New(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// A one-shot build exports the registry with WriteTextfile for the node exporter textfile
// collector; the watch command can serve it over HTTP with Handler.
package metrics
