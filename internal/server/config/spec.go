package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for storefront-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Database  DatabaseSection  `koanf:"database"`
	Media     MediaSection     `koanf:"media"`
	Messaging MessagingSection `koanf:"messaging"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures the HTTP surface and the request pipeline.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// APIPrefix is the namespace counted by app_requests_total and
	// excluded from the SPA fallback.
	APIPrefix string `koanf:"api_prefix"`

	// MetricsPath is the exact path of the Prometheus endpoint.
	MetricsPath string `koanf:"metrics_path"`

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `koanf:"trust_proxy"`

	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Static    StaticConfig    `koanf:"static"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// BodyLimit caps JSON request bodies, in bytes.
	BodyLimit int64 `koanf:"body_limit"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address. An empty host listens on all interfaces.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether both certificate and key are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// CORSConfig configures cross-origin resource sharing.
type CORSConfig struct {
	// AllowedOrigins narrows the policy; empty allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// RPS is the sustained request rate per client IP. Zero disables limiting.
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Enabled reports whether rate limiting is active.
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

// StaticConfig configures the SPA bundle.
type StaticConfig struct {
	Dir   string `koanf:"dir"`
	Index string `koanf:"index"`
}

// DatabaseSection configures the document store.
type DatabaseSection struct {
	// Driver is one of badger, postgres, memory.
	Driver string `koanf:"driver"`

	// DataDir is the badger data directory.
	DataDir string `koanf:"data_dir"`

	// DSN is the postgres connection string.
	DSN string `koanf:"dsn"`

	MaxOpenConns int `koanf:"max_open_conns"`

	// AutoMigrate applies pending migrations when serving.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// MediaSection configures the uploaded media store.
type MediaSection struct {
	Dir string `koanf:"dir"`

	// BaseURL is both the mount prefix and the prefix of stored image URLs.
	BaseURL string `koanf:"base_url"`

	// MaxUploadSize caps a single uploaded image, in bytes.
	MaxUploadSize int64 `koanf:"max_upload_size"`
}

// MessagingSection configures order event publishing.
type MessagingSection struct {
	// AMQPURL enables the AMQP publisher; empty disables publishing.
	AMQPURL string `koanf:"amqp_url"`
	Queue   string `koanf:"queue"`

	// CAFile adds a PEM CA bundle to the system roots for amqps:// brokers.
	CAFile string `koanf:"ca_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
