package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/storefront-go/internal/infra/confloader"
)

// EnvPrefix prefixes environment overrides, e.g. STOREFRONT_CLI_SERVER.
const EnvPrefix = "STOREFRONT_CLI_"

// DefaultConfigPath returns ~/.storefront/cli.yaml.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".storefront", "cli.yaml")
}

// Load reads the CLI configuration and applies STOREFRONT_CLI_* variables.
// A missing file yields the defaults.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileForm is the on-disk shape; durations are written as "30s".
type fileForm struct {
	Server    string `yaml:"server"`
	APIPrefix string `yaml:"api_prefix"`
	Output    string `yaml:"output"`
	Timeout   string `yaml:"timeout"`
}

// Save writes the configuration with 0600 permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(fileForm{
		Server:    cfg.Server,
		APIPrefix: cfg.APIPrefix,
		Output:    cfg.Output,
		Timeout:   cfg.Timeout.String(),
	})
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Keys lists the settable keys in file order.
var Keys = []string{"server", "api_prefix", "output", "timeout"}

// Set assigns one key by its file name.
func Set(cfg *CLIConfig, key, value string) error {
	switch key {
	case "server":
		cfg.Server = value
	case "api_prefix":
		cfg.APIPrefix = value
	case "output":
		cfg.Output = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	default:
		return fmt.Errorf("unknown key %q (want server, api_prefix, output or timeout)", key)
	}
	return nil
}
