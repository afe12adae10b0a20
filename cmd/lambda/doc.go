// Package main hosts the API Gateway entrypoint for the price endpoint.
//
// Architecture overview:
//   - HTTP surface: internal/api exposes the same pipeline two ways. The chi
//     server (anpgru serve) carries health probes, Prometheus metrics, and the
//     /v1/prices routes; this binary adapts one API Gateway event per
//     invocation through api.LambdaHandler instead.
//   - Fetch pipeline: internal/service resolves the current weekly workbook
//     URL (config or index-page discovery), downloads it through the
//     Colly-based fetcher, and reduces the sheet to one municipality's prices
//     or a nationwide per-fuel summary via internal/survey.
//   - Caching: results live in an LRU keyed by payload kind and expire at the
//     agency's next expected publication hour. The same policy computes the
//     Cache-Control s-maxage sent to CDNs, so the in-process cache and the
//     edge cache roll over together.
//   - Configuration & plumbing: Viper populates config from a file and
//     ANPGRU_* env vars; zap provides structured logging; the bundled tzdata
//     keeps the publication timezone resolvable inside scratch images.
//
// Operational notes:
//   - The handler is stateless across invocations apart from the result
//     cache, so concurrency needs no coordination.
//   - A refresh=true query bypasses the cache and marks the response
//     no-store; everything else is CDN-cacheable until the next publication
//     window.
//   - Failures of any kind surface as HTTP 500 with a {"success":false}
//     body; API Gateway never sees a Go error for pipeline faults.
package main
