package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/core/domain"
)

type orderRow struct {
	ID      string `json:"id" table:"ID"`
	UserID  string `json:"user_id" table:"USER"`
	Items   int    `json:"items" table:"ITEMS"`
	Amount  string `json:"amount" table:"AMOUNT"`
	Status  string `json:"status" table:"STATUS"`
	Payment string `json:"payment_method" table:"PAYMENT,wide"`
	Paid    bool   `json:"paid" table:"PAID,wide"`
	Created string `json:"created_at" table:"CREATED"`
}

func toOrderRows(orders []domain.Order) []orderRow {
	rows := make([]orderRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		rows = append(rows, orderRow{
			ID:      o.ID,
			UserID:  o.UserID,
			Items:   items,
			Amount:  formatPrice(o.Amount),
			Status:  string(o.Status),
			Payment: string(o.PaymentMethod),
			Paid:    o.Paid,
			Created: formatTime(o.CreatedAt),
		})
	}
	return rows
}

// OrderCommand returns the order subcommand group.
func OrderCommand() *cli.Command {
	return &cli.Command{
		Name:    "order",
		Aliases: []string{"orders"},
		Usage:   "Order management",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all orders, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Only orders in this status"},
				},
				Action: orderList,
			},
			{
				Name:      "user",
				Usage:     "List the orders of one user",
				ArgsUsage: "<user-id>",
				Action:    orderUser,
			},
			{
				Name:      "status",
				Usage:     "Move an order to a new status",
				ArgsUsage: "<order-id> <status>",
				Description: "Statuses: " + strings.Join([]string{
					string(domain.OrderPlaced), string(domain.OrderPacking), string(domain.OrderShipped),
					string(domain.OrderOutForDelivery), string(domain.OrderDelivered),
				}, ", "),
				Action: orderStatus,
			},
		},
	}
}

func orderList(c *cli.Context) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var orders []domain.Order
	if err := s.Client.Get(ctxOf(c), "/order/list", &orders); err != nil {
		return err
	}
	if status := c.String("status"); status != "" {
		kept := orders[:0]
		for _, o := range orders {
			if strings.EqualFold(string(o.Status), status) {
				kept = append(kept, o)
			}
		}
		orders = kept
	}
	return s.Render(orders, toOrderRows(orders))
}

func orderUser(c *cli.Context) error {
	if err := requireArgs(c, "user-id"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	var orders []domain.Order
	if err := s.Client.Post(ctxOf(c), "/order/userorders", map[string]string{"userId": c.Args().First()}, &orders); err != nil {
		return err
	}
	return s.Render(orders, toOrderRows(orders))
}

func orderStatus(c *cli.Context) error {
	if err := requireArgs(c, "order-id", "status"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	body := map[string]string{
		"orderId": c.Args().Get(0),
		"status":  c.Args().Get(1),
	}
	var order domain.Order
	if err := s.Client.Post(ctxOf(c), "/order/status", body, &order); err != nil {
		return err
	}
	return s.Render(&order, toOrderRows([]domain.Order{order}))
}
