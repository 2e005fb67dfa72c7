// Package httpserver provides the storefront HTTP server and its request
// pipeline.
//
// Every request passes through the same linear chain:
//
//   - Recover, RequestID and AccessLog wrap the whole pipeline
//   - requests under the API prefix increment app_requests_total
//   - GET on the metrics path returns the Prometheus exposition
//   - JSON bodies are size limited, validated and stored in the context
//   - CORS headers are applied and preflights answered with 204
//   - an optional per-client token bucket rejects excess traffic
//   - mounted groups are tried in order, first prefix match wins
//   - GET/HEAD requests outside the API prefix get static assets, then the
//     SPA entry document
//   - anything left is a structured 404
//
// Errors from any stage are rendered by one global error terminator.
package httpserver
