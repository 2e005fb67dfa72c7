package storage

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/yndnr/storefront-go/pkg/cmap"
)

// MemoryStore keeps documents in sharded maps, one map per collection.
// Contents are lost on Close.
type MemoryStore struct {
	collections *cmap.Map[*cmap.Map[[]byte]]
	closed      atomic.Bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: cmap.New[*cmap.Map[[]byte]](),
	}
}

func (s *MemoryStore) collection(name string) *cmap.Map[[]byte] {
	return s.collections.GetOrCreate(name, cmap.New[[]byte])
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// Put creates or replaces a document.
func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}
	s.collection(collection).Set(id, clone(doc))
	return nil
}

// Create stores a document only if the id is unused.
func (s *MemoryStore) Create(ctx context.Context, collection, id string, doc []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}
	if !s.collection(collection).SetIfAbsent(id, clone(doc)) {
		return ErrExists
	}
	return nil
}

// Get returns a copy of a document.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	c, ok := s.collections.Get(collection)
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := validateKey(collection, id); err != nil {
		return err
	}
	c, ok := s.collections.Get(collection)
	if !ok || !c.Delete(id) {
		return ErrNotFound
	}
	return nil
}

// List visits a snapshot of the collection in ascending id order.
func (s *MemoryStore) List(ctx context.Context, collection string, fn func(id string, doc []byte) bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := validateCollection(collection); err != nil {
		return err
	}
	c, ok := s.collections.Get(collection)
	if !ok {
		return nil
	}

	type entry struct {
		id  string
		doc []byte
	}
	entries := make([]entry, 0, c.Count())
	c.Range(func(id string, doc []byte) bool {
		entries = append(entries, entry{id: id, doc: doc})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(e.id, clone(e.doc)) {
			break
		}
	}
	return nil
}

// CountDocuments returns the number of documents per non-empty collection.
func (s *MemoryStore) CountDocuments(ctx context.Context) (map[string]int, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	s.collections.Range(func(name string, c *cmap.Map[[]byte]) bool {
		if n := c.Count(); n > 0 {
			counts[name] = n
		}
		return true
	})
	return counts, nil
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.check(ctx)
}

// Close drops all documents.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.collections.Clear()
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
