// Package api hosts the HTTP status server for tracked runs. Notable routes:
//   - GET /healthz / readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/runs and /v1/runs/{run_id} for run estimates via the
//     RunRepository interface.
//   - GET /v1/status for the most recent run.
package api
