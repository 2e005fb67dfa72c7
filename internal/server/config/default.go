package config

import "time"

// Default configuration values.
const (
	DefaultHTTPPort          = 5000
	DefaultBodyLimit         = 100 << 10
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	DefaultAPIPrefix   = "/api"
	DefaultMetricsPath = "/metrics"
	DefaultStaticDir   = "public"
	DefaultStaticIndex = "index.html"

	DefaultDriver       = DriverBadger
	DefaultDataDir      = "data"
	DefaultMaxOpenConns = 10

	DefaultMediaDir      = "uploads"
	DefaultMediaBaseURL  = "/media"
	DefaultMaxUploadSize = 10 << 20

	DefaultQueue = "orders"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Storage drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Port:              DefaultHTTPPort,
				BodyLimit:         DefaultBodyLimit,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ReadTimeout:       DefaultReadTimeout,
				WriteTimeout:      DefaultWriteTimeout,
				IdleTimeout:       DefaultIdleTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
			APIPrefix:   DefaultAPIPrefix,
			MetricsPath: DefaultMetricsPath,
			Static: StaticConfig{
				Dir:   DefaultStaticDir,
				Index: DefaultStaticIndex,
			},
		},
		Database: DatabaseSection{
			Driver:       DefaultDriver,
			DataDir:      DefaultDataDir,
			MaxOpenConns: DefaultMaxOpenConns,
			AutoMigrate:  true,
		},
		Media: MediaSection{
			Dir:           DefaultMediaDir,
			BaseURL:       DefaultMediaBaseURL,
			MaxUploadSize: DefaultMaxUploadSize,
		},
		Messaging: MessagingSection{
			Queue: DefaultQueue,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// EnvAliases maps unprefixed environment variables onto config keys.
var EnvAliases = map[string]string{
	"PORT":         "server.http.port",
	"DATABASE_URL": "database.dsn",
	"AMQP_URL":     "messaging.amqp_url",
	"LOG_LEVEL":    "log.level",
}
