package config

import (
	"strings"

	"github.com/yndnr/storefront-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with credentials masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Database.DSN = maskSecret(sanitized.Database.DSN)
	sanitized.Messaging.AMQPURL = maskSecret(sanitized.Messaging.AMQPURL)

	return &sanitized
}

// maskSecret masks the password of a connection URL. Key/value DSNs
// ("host=... password=...") are hidden entirely.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if masked := logger.RedactString(s); masked != s {
		return masked
	}
	if strings.Contains(s, "password=") {
		return "****"
	}
	return s
}
