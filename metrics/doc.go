// Package metrics exports receiver telemetry to Prometheus and as JSON.
//
// The Collector reads a fresh receiver.Stats snapshot on every scrape, so
// the pipeline keeps its plain atomic counters and never pushes metrics.
package metrics
