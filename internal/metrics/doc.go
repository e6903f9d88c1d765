// Package metrics exports the counters and timings of a finished run in the
// Prometheus text exposition format.
//
// A scrape is a batch job, so nothing is served. Instead the snapshot is
// written to a file that a node_exporter textfile collector can pick up.
package metrics
