package config

import "time"

// CLIConfig is the configuration for storefront-cli.
type CLIConfig struct {
	Server    string        `koanf:"server"`
	APIPrefix string        `koanf:"api_prefix"`
	Output    string        `koanf:"output"` // table, json, yaml
	Timeout   time.Duration `koanf:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:    "http://localhost:5000",
		APIPrefix: "/api",
		Output:    "table",
		Timeout:   30 * time.Second,
	}
}
