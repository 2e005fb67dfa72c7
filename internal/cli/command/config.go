package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/cli/config"
	"github.com/yndnr/storefront-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI settings file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective settings",
				Action: configShow,
			},
			{
				Name:      "set",
				Usage:     "Set one setting and save the file",
				ArgsUsage: "<key> <value>",
				Action:    configSet,
			},
			{
				Name:  "path",
				Usage: "Print the settings file path",
				Action: func(c *cli.Context) error {
					s, err := session(c)
					if err != nil {
						return err
					}
					fmt.Fprintln(s.Out, c.String("config"))
					return nil
				},
			},
		},
	}
}

func configShow(c *cli.Context) error {
	s, err := session(c)
	if err != nil {
		return err
	}
	values := map[string]string{
		"server":     s.Config.Server,
		"api_prefix": s.Config.APIPrefix,
		"output":     s.Config.Output,
		"timeout":    s.Config.Timeout.String(),
	}
	table := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range config.Keys {
		table.AddRow(k, values[k])
	}
	return s.Render(values, table)
}

// configSet edits the file contents, not the flag-merged session values.
func configSet(c *cli.Context) error {
	if err := requireArgs(c, "key", "value"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	key, value := c.Args().Get(0), c.Args().Get(1)
	if err := config.Set(cfg, key, value); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(s.Out, "%s = %s\n", key, value)
	return nil
}
