package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed view over one collection of a DocumentStore.
type Collection[T any] struct {
	store DocumentStore
	name  string
}

// NewCollection creates a typed collection.
func NewCollection[T any](store DocumentStore, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get loads and decodes a document.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return &v, nil
}

// Put encodes and stores a document, replacing any previous version.
func (c *Collection[T]) Put(ctx context.Context, id string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.store.Put(ctx, c.name, id, raw)
}

// Create encodes and stores a document if the id is unused.
func (c *Collection[T]) Create(ctx context.Context, id string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.store.Create(ctx, c.name, id, raw)
}

// Delete removes a document.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// List decodes every document for which keep returns true (nil keeps all).
func (c *Collection[T]) List(ctx context.Context, keep func(*T) bool) ([]T, error) {
	out := make([]T, 0)
	var decodeErr error
	err := c.store.List(ctx, c.name, func(id string, raw []byte) bool {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			decodeErr = fmt.Errorf("decode %s/%s: %w", c.name, id, err)
			return false
		}
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}
