package command

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/cli/config"
	"github.com/yndnr/storefront-go/internal/cli/connection"
	"github.com/yndnr/storefront-go/internal/cli/output"
	"github.com/yndnr/storefront-go/internal/infra/buildinfo"
)

const sessionKey = "session"

// Session is the per-invocation state built from flags and the config file.
type Session struct {
	Config    *config.CLIConfig
	Client    *connection.Client
	Formatter output.Formatter
	Out       io.Writer
}

// Print renders data with the selected formatter.
func (s *Session) Print(data any) error {
	return s.Formatter.Format(s.Out, data)
}

// Render prints rows as a table, or the API value for json and yaml.
func (s *Session) Render(value, rows any) error {
	if _, ok := s.Formatter.(*output.TableFormatter); ok {
		return s.Print(rows)
	}
	return s.Print(value)
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "storefront-cli",
		Usage:   "Storefront operator tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ProductCommand(),
			OrderCommand(),
			CartCommand(),
			UserCommand(),
			StatusCommand(),
			ConfigCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI settings file",
			Value: config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "storefront server URL (e.g. http://localhost:5000)",
			EnvVars: []string{"STOREFRONT_SERVER"},
		},
		&cli.StringFlag{
			Name:  "api-prefix",
			Usage: "API namespace on the server",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
		},
	}
}

// setup merges the settings file with flags and stores the session.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("api-prefix") {
		cfg.APIPrefix = c.String("api-prefix")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}

	opts := []connection.Option{
		connection.WithAPIPrefix(cfg.APIPrefix),
		connection.WithUserAgent("storefront-cli/" + buildinfo.Get().Version),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, connection.WithTimeout(cfg.Timeout))
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = &Session{
		Config:    cfg,
		Client:    connection.NewClient(cfg.Server, opts...),
		Formatter: output.NewFormatter(format, c.Bool("wide")),
		Out:       out,
	}
	return nil
}

// session returns the state stored by setup.
func session(c *cli.Context) (*Session, error) {
	if s, ok := c.App.Metadata[sessionKey].(*Session); ok {
		return s, nil
	}
	return nil, fmt.Errorf("cli session not initialized")
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, names ...string) error {
	if c.NArg() != len(names) {
		return fmt.Errorf("usage: %s <%s>", c.Command.HelpName, strings.Join(names, "> <"))
	}
	return nil
}

// formatPrice renders minor units as a decimal amount.
func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// parsePrice parses "12", "12.5" or "12.50" into minor units.
func parsePrice(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return int64(f*100 + 0.5), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
