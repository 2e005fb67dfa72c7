// Package logger builds the storefront's log/slog loggers.
//
// Loggers returned by New share one process-wide level (see SetLevel),
// redact secrets before encoding and tag records logged with a request
// context with its request_id.
package logger
