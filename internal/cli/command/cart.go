package command

import (
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/core/domain"
)

type cartRow struct {
	ProductID string `json:"product_id" table:"PRODUCT"`
	Size      string `json:"size" table:"SIZE"`
	Quantity  int    `json:"quantity" table:"QTY"`
}

// CartCommand returns the cart subcommand group.
func CartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "Inspect shopping carts",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show the cart of one user",
				ArgsUsage: "<user-id>",
				Action:    cartShow,
			},
		},
	}
}

func cartShow(c *cli.Context) error {
	if err := requireArgs(c, "user-id"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	var cart domain.Cart
	if err := s.Client.Post(ctxOf(c), "/cart/get", map[string]string{"userId": c.Args().First()}, &cart); err != nil {
		return err
	}

	var rows []cartRow
	for productID, sizes := range cart.Items {
		for size, qty := range sizes {
			rows = append(rows, cartRow{ProductID: productID, Size: size, Quantity: qty})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].Size < rows[j].Size
	})
	return s.Render(&cart, rows)
}
