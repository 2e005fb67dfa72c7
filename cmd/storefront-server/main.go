package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/infra/buildinfo"
	"github.com/yndnr/storefront-go/internal/server/config"
	"github.com/yndnr/storefront-go/internal/storage"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newApp creates the CLI application.
func newApp() *cli.App {
	return &cli.App{
		Name:    "storefront-server",
		Usage:   "Storefront HTTP backend",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"STOREFRONT_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv file to load (repeatable; missing files are skipped)",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending postgres migrations and exit",
				Action: migrateAction,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, "storefront-server "+buildinfo.String())
					return nil
				},
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"), c.StringSlice("env-file"))
	if err != nil {
		return err
	}
	return serve(c.Context, cfg, c.String("config"), c.StringSlice("env-file"))
}

func migrateAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"), c.StringSlice("env-file"))
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.Database.Driver != config.DriverPostgres {
		log.Info("nothing to migrate", "driver", cfg.Database.Driver)
		return nil
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn (DATABASE_URL) is required for migrate")
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := storage.OpenPostgres(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := storage.Migrate(ctx, db, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "database at migration version %d\n", version)
	return nil
}
