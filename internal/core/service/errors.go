package service

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/storage"
	"github.com/yndnr/storefront-go/pkg/cmap"
)

// storeError maps storage errors onto domain errors. notFound is used for
// storage.ErrNotFound.
func storeError(err error, notFound *domain.DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, storage.ErrInvalidKey):
		if notFound != nil {
			return notFound
		}
		return domain.ErrInvalidArgument.WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case domain.HasCode(err, ""):
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}

// keyedMutex serializes read-modify-write cycles per key. Entries live
// only while some caller holds or waits for the key.
type keyedMutex struct {
	locks *cmap.Map[*keyedEntry]
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int // guarded by the cmap shard lock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: cmap.New[*keyedEntry]()}
}

func (k *keyedMutex) lock(key string) func() {
	e, _ := k.locks.Compute(key, func(e *keyedEntry, ok bool) (*keyedEntry, bool) {
		if !ok {
			e = &keyedEntry{}
		}
		e.refs++
		return e, true
	})
	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.locks.Compute(key, func(cur *keyedEntry, ok bool) (*keyedEntry, bool) {
				if !ok {
					return nil, false
				}
				cur.refs--
				return cur, cur.refs > 0
			})
		})
	}
}
