// Package cmap provides a string-keyed sharded concurrent map.
//
// Keys are distributed across a power-of-two number of shards with
// hash/maphash; each shard is guarded by its own RWMutex, so readers and
// writers of unrelated keys rarely contend.
//
// Usage:
//
//	m := cmap.New[*rate.Limiter]()
//	lim := m.GetOrCreate(ip, func() *rate.Limiter { return rate.NewLimiter(10, 10) })
//
// Range and DeleteFunc lock shard by shard; they do not observe a single
// consistent snapshot of the whole map.
package cmap
