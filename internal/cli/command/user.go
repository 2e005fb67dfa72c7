package command

import (
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/core/domain"
)

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Look up customers",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a user profile",
				ArgsUsage: "<user-id>",
				Action:    userGet,
			},
		},
	}
}

func userGet(c *cli.Context) error {
	if err := requireArgs(c, "user-id"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	var profile domain.UserProfile
	if err := s.Client.Get(ctxOf(c), "/user/"+url.PathEscape(c.Args().First()), &profile); err != nil {
		return err
	}
	return s.Print(&profile)
}
