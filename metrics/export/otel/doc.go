// Package otel publishes tokengate engine metrics through an OpenTelemetry
// meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter
// and, for the check latency histogram, one Int64ObservableGauge per
// cumulative bucket plus count and sum gauges. A single callback reads
// [tokengate.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
