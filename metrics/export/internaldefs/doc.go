// Package internaldefs holds the metric names and bucket bounds shared by
// the exporter packages.
//
// Both the Prometheus and OTel exporters read these definitions, so a change
// here renames the metric everywhere at once. The package performs no I/O.
package internaldefs
