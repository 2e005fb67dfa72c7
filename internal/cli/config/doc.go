// Package config holds the storefront-cli settings file
// (~/.storefront/cli.yaml): default server, API prefix, output format and
// request timeout. Flags and STOREFRONT_CLI_* variables override it.
package config
