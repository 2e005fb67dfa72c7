package httpserver

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/storefront-go/pkg/cmap"
)

// Rate limiter housekeeping.
const (
	limiterSweepEvery = 4096
	limiterIdleTTL    = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter is a per-client token bucket limiter.
type RateLimiter struct {
	buckets *cmap.Map[*limiterEntry]
	limit   rate.Limit
	burst   int
	calls   atomic.Uint64
	now     func() time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. A burst below 1 is raised to ceil(rps).
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = int(rps)
		if float64(burst) < rps {
			burst++
		}
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{
		buckets: cmap.New[*limiterEntry](),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed now.
func (l *RateLimiter) Allow(client string) bool {
	now := l.now()
	e := l.buckets.GetOrCreate(client, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	e.lastSeen.Store(now.UnixNano())

	if l.calls.Add(1)%limiterSweepEvery == 0 {
		l.Sweep(now.Add(-limiterIdleTTL))
	}
	return e.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle since before cutoff and returns how many.
func (l *RateLimiter) Sweep(cutoff time.Time) int {
	c := cutoff.UnixNano()
	return l.buckets.DeleteFunc(func(_ string, e *limiterEntry) bool {
		return e.lastSeen.Load() < c
	})
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	return l.buckets.Count()
}
