// Package output renders storefront-cli results as a table, JSON or YAML.
//
// Table columns come from `table:"HEADER[,wide]"` struct tags. Fields
// tagged wide only appear with --wide; untagged fields fall back to their
// json name.
package output
