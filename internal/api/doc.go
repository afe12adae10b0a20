// Package api hosts the HTTP server, middleware, and REST handlers, plus the
// API Gateway adapter for the Lambda deployment. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/prices for the municipality's latest fuel prices.
//   - GET /v1/prices/summary for nationwide per-fuel aggregates.
package api
