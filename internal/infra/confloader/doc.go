// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. YAML configuration file
//  3. Dotenv files (never overriding variables already set)
//  4. Prefixed environment variables (STOREFRONT_SERVER_HTTP_PORT)
//  5. Alias environment variables (PORT, DATABASE_URL, ...)
//
// Prefixed variables are matched against the target's koanf keys, so
// STOREFRONT_SERVER_HTTP_BODY_LIMIT resolves to server.http.body_limit.
//
// Watcher notifies callbacks once per burst of writes to a watched file.
package confloader
