package config

import (
	"errors"
	"fmt"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("server config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyDatabase(&cfg.Database); err != nil {
		return err
	}
	if err := verifyMedia(&cfg.Media); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port %d out of range 1-65535", cfg.HTTP.Port)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.BodyLimit <= 0 {
		return errors.New("server.http.body_limit must be positive")
	}
	if !isPath(cfg.APIPrefix) || cfg.APIPrefix == "/" {
		return fmt.Errorf("server.api_prefix %q must start with / and not be the root", cfg.APIPrefix)
	}
	if !isPath(cfg.MetricsPath) {
		return fmt.Errorf("server.metrics_path %q must start with /", cfg.MetricsPath)
	}
	if strings.HasPrefix(cfg.MetricsPath+"/", cfg.APIPrefix+"/") {
		return fmt.Errorf("server.metrics_path %q must not live under the API prefix", cfg.MetricsPath)
	}
	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit values must not be negative")
	}
	if cfg.Static.Index == "" || strings.ContainsAny(cfg.Static.Index, `/\`) {
		return fmt.Errorf("server.static.index %q must be a plain file name", cfg.Static.Index)
	}
	return nil
}

func verifyDatabase(cfg *DatabaseSection) error {
	switch cfg.Driver {
	case DriverBadger:
		if cfg.DataDir == "" {
			return errors.New("database.data_dir is required for the badger driver")
		}
	case DriverPostgres:
		if cfg.DSN == "" {
			return errors.New("database.dsn (or DATABASE_URL) is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q must be one of badger, postgres, memory", cfg.Driver)
	}
	return nil
}

func verifyMedia(cfg *MediaSection) error {
	if cfg.Dir == "" {
		return errors.New("media.dir is required")
	}
	if !isPath(cfg.BaseURL) || cfg.BaseURL == "/" {
		return fmt.Errorf("media.base_url %q must start with / and not be the root", cfg.BaseURL)
	}
	if cfg.MaxUploadSize <= 0 {
		return errors.New("media.max_upload_size must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q must be json or text", cfg.Format)
	}
	return nil
}

func isPath(p string) bool {
	if p == "/" {
		return true
	}
	return strings.HasPrefix(p, "/") && !strings.HasSuffix(p, "/")
}
