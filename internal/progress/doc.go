// Package progress carries tracker snapshots from a running estimate to
// observers. Runners emit Events into a non-blocking Hub, which batches them
// on a background goroutine and fans them out to pluggable sinks such as
// structured logs or Prometheus gauges.
package progress
