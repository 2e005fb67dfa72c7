package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotFound   = errors.New("document not found")
	ErrExists     = errors.New("document already exists")
	ErrClosed     = errors.New("document store closed")
	ErrInvalidKey = errors.New("invalid collection or id")
)

// DocumentStore persists JSON documents grouped in collections.
//
// Implementations are safe for concurrent use. List visits documents in
// ascending id order.
type DocumentStore interface {
	// Put creates or replaces a document.
	Put(ctx context.Context, collection, id string, doc []byte) error

	// Create stores a document only if the id is unused.
	// Returns ErrExists otherwise.
	Create(ctx context.Context, collection, id string, doc []byte) error

	// Get returns a document or ErrNotFound.
	Get(ctx context.Context, collection, id string) ([]byte, error)

	// Delete removes a document. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, collection, id string) error

	// List calls fn for each document in a collection until fn returns false.
	List(ctx context.Context, collection string, fn func(id string, doc []byte) bool) error

	// CountDocuments returns the number of documents per collection.
	CountDocuments(ctx context.Context) (map[string]int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of "badger", "postgres", "memory".
	Driver string

	// Dir is the badger data directory.
	Dir string

	// DSN is the postgres connection string.
	DSN string

	// MaxOpenConns bounds the postgres connection pool.
	MaxOpenConns int

	// AutoMigrate applies pending postgres migrations on open.
	AutoMigrate bool

	// Badger tuning; zero values use DefaultBadgerConfig.
	Badger BadgerConfig
}

func validateKey(collection, id string) error {
	if collection == "" || strings.Contains(collection, keySep) {
		return fmt.Errorf("%w: collection %q", ErrInvalidKey, collection)
	}
	if id == "" || strings.Contains(id, keySep) {
		return fmt.Errorf("%w: id %q", ErrInvalidKey, id)
	}
	return nil
}

func validateCollection(collection string) error {
	if collection == "" || strings.Contains(collection, keySep) {
		return fmt.Errorf("%w: collection %q", ErrInvalidKey, collection)
	}
	return nil
}

// keySep separates collection and id in flat key spaces.
const keySep = "/"
