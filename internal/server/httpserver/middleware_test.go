package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/storefront-go/internal/telemetry/logger"
	"github.com/yndnr/storefront-go/internal/telemetry/metric"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = logger.RequestIDFromContext(r.Context())
		_, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
		assert.True(t, ok)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-abc-123", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, got, 36, "oversized client IDs are replaced")
}

func TestAccessLog_RecordsMetrics(t *testing.T) {
	reg := metric.NewRegistry()
	h := AccessLog(discardLogger(), reg, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setRoute(r, "product")
		assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPInFlight))
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/product/add", nil))

	assert.Equal(t, float64(0), testutil.ToFloat64(reg.HTTPInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.HTTPRequests.WithLabelValues("product", "POST", "201")))
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)
	assert.Same(t, rw, wrapResponseWriter(rw))
	assert.False(t, rw.Started())
	assert.Equal(t, http.StatusOK, rw.Status())

	_, err := rw.Write([]byte("hi"))
	require.NoError(t, err)
	assert.True(t, rw.Started())

	rw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rw.Status(), "status is fixed once written")
	assert.Equal(t, int64(2), rw.written)
	assert.Same(t, http.ResponseWriter(rec), rw.Unwrap())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "::1", clientIP(req, false))
	assert.Equal(t, "203.0.113.9", clientIP(req, true))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req, true))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req, false))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "one token refills per second")

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, l.Sweep(now.Add(time.Minute)))
	assert.Equal(t, 0, l.Len())
}

func TestNewRateLimiter_DefaultBurst(t *testing.T) {
	assert.Equal(t, 3, NewRateLimiter(2.5, 0).burst)
	assert.Equal(t, 1, NewRateLimiter(0.1, 0).burst)
	assert.Equal(t, 7, NewRateLimiter(1, 7).burst)
}
