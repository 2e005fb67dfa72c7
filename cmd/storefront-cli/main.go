// Command storefront-cli is the operator tool for a running storefront
// server: catalog, orders, carts, users and a metrics summary.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/storefront-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
