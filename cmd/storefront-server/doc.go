// Package main provides the entry point for storefront-server.
//
// storefront-server is the storefront backend: customer, catalog, cart and
// order APIs under /api, uploaded product images under /media, Prometheus
// metrics and the single page application bundle.
//
// Usage:
//
//	storefront-server [--config FILE] [--env-file FILE] [serve]
//	storefront-server migrate
//	storefront-server version
//
// Configuration layers, lowest first: built-in defaults, the YAML file,
// .env files, STOREFRONT_* variables, then PORT, DATABASE_URL, AMQP_URL
// and LOG_LEVEL.
package main
