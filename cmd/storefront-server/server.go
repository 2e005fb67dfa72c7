package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/yndnr/storefront-go/internal/core/service"
	"github.com/yndnr/storefront-go/internal/infra/buildinfo"
	"github.com/yndnr/storefront-go/internal/infra/confloader"
	"github.com/yndnr/storefront-go/internal/infra/shutdown"
	"github.com/yndnr/storefront-go/internal/infra/tlsroots"
	"github.com/yndnr/storefront-go/internal/media"
	"github.com/yndnr/storefront-go/internal/messaging"
	"github.com/yndnr/storefront-go/internal/server/config"
	"github.com/yndnr/storefront-go/internal/server/httpserver"
	"github.com/yndnr/storefront-go/internal/server/httpserver/handler"
	"github.com/yndnr/storefront-go/internal/storage"
	"github.com/yndnr/storefront-go/internal/telemetry/logger"
	"github.com/yndnr/storefront-go/internal/telemetry/metric"
)

// serve starts every component, blocks until a signal and shuts down in
// reverse start order.
func serve(ctx context.Context, cfg *config.ServerConfig, configFile string, envFiles []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting storefront-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	shutdownHandler.OnShutdown("store", func(context.Context) error {
		return app.store.Close()
	})
	shutdownHandler.OnShutdown("publisher", func(context.Context) error {
		return app.publisher.Close()
	})

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr())
	if err != nil {
		_ = shutdownHandler.Shutdown()
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr(), err)
	}
	httpServer := httpserver.New(httpserver.Config{
		Addr:              cfg.Server.HTTP.Addr(),
		TLSCertFile:       cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:        cfg.Server.HTTP.TLSKeyFile,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:      cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:       cfg.Server.HTTP.IdleTimeout,
	}, app.handler, log)
	shutdownHandler.OnShutdown("http", httpServer.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil {
			log.Error("http server failed", "error", err)
			serveErr <- err
			shutdownHandler.Trigger("http server failed")
		}
	}()

	if configFile != "" {
		stop, err := watchConfig(configFile, envFiles, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error { return stop() })
		}
	}

	log.Info("server started", "addr", ln.Addr().String())
	if err := shutdownHandler.Wait(ctx); err != nil {
		return err
	}

	select {
	case err := <-serveErr:
		return err
	default:
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, file, dotenv, prefixed env and alias env,
// then verifies the result.
func loadConfig(configFile string, envFiles []string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithDotEnv(envFiles...)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	for name, key := range config.EnvAliases {
		opts = append(opts, confloader.WithEnvAlias(name, key))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
		Attrs:  []slog.Attr{slog.String("service", "storefront-server")},
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// application holds the long-lived components built at startup.
type application struct {
	store     storage.DocumentStore
	media     *media.LocalStore
	publisher messaging.Publisher
	metrics   *metric.Registry
	handler   http.Handler
}

// build connects the store, media directory and publisher and assembles
// the request pipeline. On error every component already opened is closed.
func build(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (_ *application, err error) {
	app := &application{metrics: metric.NewRegistry()}
	info := buildinfo.Get()
	app.metrics.SetBuildInfo(info.Version, info.Commit)

	app.store, err = storage.Open(ctx, storage.Config{
		Driver:       cfg.Database.Driver,
		Dir:          cfg.Database.DataDir,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		AutoMigrate:  cfg.Database.AutoMigrate,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = app.store.Close()
		}
	}()
	app.metrics.MustRegister(metric.NewStoreCollector(app.store, cfg.Database.Driver))
	if bs, ok := app.store.(*storage.BadgerStore); ok {
		bs.RegisterMetrics(app.metrics.Registerer())
	}

	app.media, err = media.NewLocalStore(cfg.Media.Dir, cfg.Media.BaseURL, cfg.Media.MaxUploadSize, log)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}

	var pub messaging.Publisher = messaging.Noop{}
	if cfg.Messaging.AMQPURL != "" {
		var opts []messaging.AMQPOption
		if cfg.Messaging.CAFile != "" {
			tlsCfg, err := tlsroots.ClientConfig(cfg.Messaging.CAFile)
			if err != nil {
				return nil, fmt.Errorf("load broker CA: %w", err)
			}
			opts = append(opts, messaging.WithTLSConfig(tlsCfg))
		}
		amqpPub, err := messaging.NewAMQPPublisher(cfg.Messaging.AMQPURL, cfg.Messaging.Queue, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect publisher: %w", err)
		}
		pub = amqpPub
	} else {
		log.Info("order events disabled", "reason", "messaging.amqp_url not set")
	}
	app.publisher = messaging.Observed(pub, app.metrics.RecordOrderEvent)

	users := service.NewUserService(app.store, 0)
	products := service.NewProductService(app.store, app.media, log)
	carts := service.NewCartService(app.store, users, products)
	orders := service.NewOrderService(app.store, carts, products, app.publisher, log)

	api := cfg.Server.APIPrefix
	uploadLimit := cfg.Media.MaxUploadSize*service.MaxProductImages + 1<<20

	app.handler = httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:            app.metrics,
		Logger:             log,
		APIPrefix:          api,
		MetricsPath:        cfg.Server.MetricsPath,
		BodyLimit:          cfg.Server.HTTP.BodyLimit,
		CORSAllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		RateLimit:          cfg.Server.RateLimit.RPS,
		RateBurst:          cfg.Server.RateLimit.Burst,
		TrustProxy:         cfg.Server.TrustProxy,
		Mounts: []httpserver.Mount{
			{Prefix: api + "/user", Name: "user", Group: handler.NewUserGroup(users)},
			{Prefix: api + "/product", Name: "product", Group: handler.NewProductGroup(products, uploadLimit)},
			{Prefix: api + "/cart", Name: "cart", Group: handler.NewCartGroup(carts)},
			{Prefix: api + "/order", Name: "order", Group: handler.NewOrderGroup(orders)},
			{Prefix: app.media.BaseURL(), Name: "media", Group: handler.NewMediaGroup(app.media.FS())},
		},
		Static:      os.DirFS(cfg.Server.Static.Dir),
		StaticIndex: cfg.Server.Static.Index,
	})
	return app, nil
}

// watchConfig reloads the configuration file on change and applies the
// new log level. Other settings need a restart.
func watchConfig(configFile string, envFiles []string, log *slog.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := loadConfig(configFile, envFiles)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		prev := logger.Level()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "error", err)
			return
		}
		if now := logger.Level(); now != prev {
			log.Info("log level changed", "from", prev, "to", now)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}
