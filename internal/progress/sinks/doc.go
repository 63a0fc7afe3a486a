// Package sinks implements concrete run event consumers: structured logging,
// Prometheus gauges, and a run repository writer. Each sink satisfies the
// progress.Sink interface and is safe for repeated Consume/Close cycles.
package sinks
