// Package config provides the storefront server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (ports, drivers, paths)
//   - sanitize.go: Log sanitization (hide credentials)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// STOREFRONT_* environment variables and the PORT, DATABASE_URL and
// AMQP_URL aliases.
package config
