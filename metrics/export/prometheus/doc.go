// Package prometheus exposes tokengate engine metrics as a
// prometheus.Collector.
//
// [NewPrometheusExporter] wraps an engine. The exporter can be registered
// with any Registerer, or mounted directly through [PrometheusExporter.Handler],
// which serves it from a private registry. Counter names are prefixed
// tokengate_*_total; the single histogram is tokengate_check_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
