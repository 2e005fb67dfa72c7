package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storefront-go/internal/core/domain"
)

// productRow is the table view of a product.
type productRow struct {
	ID          string   `json:"id" table:"ID"`
	Name        string   `json:"name" table:"NAME"`
	Price       string   `json:"price" table:"PRICE"`
	Category    string   `json:"category" table:"CATEGORY"`
	SubCategory string   `json:"sub_category" table:"SUB_CATEGORY,wide"`
	Sizes       []string `json:"sizes" table:"SIZES"`
	Bestseller  bool     `json:"bestseller" table:"BESTSELLER,wide"`
	Images      int      `json:"images" table:"IMAGES,wide"`
	Created     string   `json:"created_at" table:"CREATED,wide"`
}

func toProductRow(p *domain.Product) productRow {
	return productRow{
		ID:          p.ID,
		Name:        p.Name,
		Price:       formatPrice(p.Price),
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		Bestseller:  p.Bestseller,
		Images:      len(p.Images),
		Created:     formatTime(p.CreatedAt),
	}
}

// ProductCommand returns the product subcommand group.
func ProductCommand() *cli.Command {
	return &cli.Command{
		Name:    "product",
		Aliases: []string{"products"},
		Usage:   "Catalog management",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Only this category"},
					&cli.BoolFlag{Name: "bestseller", Usage: "Only bestsellers"},
				},
				Action: productList,
			},
			{
				Name:      "get",
				Usage:     "Show one product",
				ArgsUsage: "<id>",
				Action:    productGet,
			},
			{
				Name:  "add",
				Usage: "Add a product with image URLs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "price", Required: true, Usage: "Decimal amount, e.g. 12.50"},
					&cli.StringFlag{Name: "category", Required: true},
					&cli.StringFlag{Name: "sub-category"},
					&cli.StringSliceFlag{Name: "size", Usage: "Available size (repeatable or comma separated)"},
					&cli.BoolFlag{Name: "bestseller"},
					&cli.StringSliceFlag{Name: "image", Usage: "Image URL (repeatable, at most 4)"},
				},
				Action: productAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a product and its uploaded images",
				ArgsUsage: "<id>",
				Action:    productRemove,
			},
		},
	}
}

func productList(c *cli.Context) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	var products []*domain.Product
	if err := s.Client.Get(ctxOf(c), "/product/list", &products); err != nil {
		return err
	}

	category := c.String("category")
	kept := products[:0]
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if c.Bool("bestseller") && !p.Bestseller {
			continue
		}
		kept = append(kept, p)
	}

	rows := make([]productRow, 0, len(kept))
	for _, p := range kept {
		rows = append(rows, toProductRow(p))
	}
	return s.Render(kept, rows)
}

func productGet(c *cli.Context) error {
	if err := requireArgs(c, "id"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	var p domain.Product
	if err := s.Client.Post(ctxOf(c), "/product/single", map[string]string{"id": c.Args().First()}, &p); err != nil {
		return err
	}
	return s.Render(&p, toProductRow(&p))
}

func productAdd(c *cli.Context) error {
	s, err := session(c)
	if err != nil {
		return err
	}

	price, err := parsePrice(c.String("price"))
	if err != nil {
		return err
	}
	var sizes []string
	for _, v := range c.StringSlice("size") {
		for _, size := range strings.Split(v, ",") {
			if size = strings.TrimSpace(size); size != "" {
				sizes = append(sizes, size)
			}
		}
	}

	body := map[string]any{
		"name":        c.String("name"),
		"description": c.String("description"),
		"price":       price,
		"category":    c.String("category"),
		"subCategory": c.String("sub-category"),
		"sizes":       sizes,
		"bestseller":  c.Bool("bestseller"),
		"images":      c.StringSlice("image"),
	}

	var p domain.Product
	if err := s.Client.Post(ctxOf(c), "/product/add", body, &p); err != nil {
		return err
	}
	return s.Render(&p, toProductRow(&p))
}

func productRemove(c *cli.Context) error {
	if err := requireArgs(c, "id"); err != nil {
		return err
	}
	s, err := session(c)
	if err != nil {
		return err
	}

	id := c.Args().First()
	if err := s.Client.Post(ctxOf(c), "/product/remove", map[string]string{"id": id}, nil); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "product %s removed\n", id)
	return nil
}

// ctxOf returns the command context, never nil.
func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
