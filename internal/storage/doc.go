// Package storage provides the document store behind the storefront.
//
// Entities are stored as JSON documents addressed by (collection, id).
// Three backends implement DocumentStore:
//
//   - badger: embedded LSM store on local disk (default)
//   - postgres: a single JSONB table, schema managed by goose migrations
//   - memory: sharded in-process maps, for tests and throwaway instances
//
// Collection wraps a store with typed JSON encoding for one entity type.
package storage
