package cmap

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"power of two", 32, 32},
		{"one", 1, 1},
		{"zero falls back", 0, DefaultShardCount},
		{"negative falls back", -4, DefaultShardCount},
		{"not power of two", 12, DefaultShardCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewWithShards[int](tt.count).ShardCount())
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[string]()

	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Set("a", "1")
	m.Set("a", "2")
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, m.Count())

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, 0, m.Count())
}

func TestSetIfAbsent(t *testing.T) {
	m := New[int]()
	assert.True(t, m.SetIfAbsent("k", 1))
	assert.False(t, m.SetIfAbsent("k", 2))
	v, _ := m.Get("k")
	assert.Equal(t, 1, v)
}

func TestGetOrCreate(t *testing.T) {
	m := New[*int64]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := m.GetOrCreate("shared", func() *int64 {
				calls.Add(1)
				return new(int64)
			})
			atomic.AddInt64(p, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	p, _ := m.Get("shared")
	assert.Equal(t, int64(50), atomic.LoadInt64(p))
}

func TestUpdate(t *testing.T) {
	m := New[int]()
	for i := 0; i < 3; i++ {
		m.Update("n", func(v int, exists bool) int {
			if !exists {
				return 10
			}
			return v + 1
		})
	}
	v, _ := m.Get("n")
	assert.Equal(t, 12, v)
}

func TestClear(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}
	require.Equal(t, 100, m.Count())
	m.Clear()
	assert.Equal(t, 0, m.Count())
}

func TestRangeAndKeys(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	assert.Equal(t, 6, sum)

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)

	keys := m.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestDeleteFunc(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	removed := m.DeleteFunc(func(_ string, v int) bool { return v%2 == 0 })
	assert.Equal(t, 5, removed)
	assert.Equal(t, 5, m.Count())
	_, ok := m.Get("k4")
	assert.False(t, ok)
}

func TestCompute(t *testing.T) {
	m := New[int]()

	v, kept := m.Compute("n", func(v int, exists bool) (int, bool) {
		assert.False(t, exists)
		return v + 2, true
	})
	assert.Equal(t, 2, v)
	assert.True(t, kept)

	_, kept = m.Compute("n", func(v int, exists bool) (int, bool) {
		assert.True(t, exists)
		return v - 2, v-2 > 0
	})
	assert.False(t, kept)
	_, ok := m.Get("n")
	assert.False(t, ok)
	assert.Zero(t, m.Count())
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
				if i%3 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	// 200 keys per goroutine, 67 of them (i%3 == 0) deleted.
	assert.Equal(t, 8*(200-67), m.Count())
}
