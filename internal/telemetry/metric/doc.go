// Package metric provides Prometheus metrics for the storefront.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the process registry and the /metrics handler
//   - collector.go: a collector reporting document counts per collection
//
// The registry always carries app_requests_total (one increment per API
// request) plus the default Go runtime and process collectors.
package metric
