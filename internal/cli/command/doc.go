// Package command defines the storefront-cli commands.
//
// Each command group maps onto one API route group: product, order, cart
// and user. status reads the server's metrics endpoint and config edits
// the local settings file.
package command
