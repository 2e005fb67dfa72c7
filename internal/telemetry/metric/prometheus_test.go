package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Registry) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler(nil).ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec, string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.registry)
	assert.NotNil(t, r.RequestsTotal)
	assert.NotNil(t, r.HTTPRequests)
	assert.NotNil(t, r.HTTPDuration)
}

func TestGlobal(t *testing.T) {
	assert.Same(t, Global(), Global())
}

func TestHandler_DefaultMetrics(t *testing.T) {
	rec, body := scrape(t, NewRegistry())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, "app_requests_total 0")
}

func TestIncAPIRequest(t *testing.T) {
	r := NewRegistry()

	r.IncAPIRequest()
	r.IncAPIRequest()
	r.IncAPIRequest()

	assert.Equal(t, 3.0, testutil.ToFloat64(r.RequestsTotal))
	_, body := scrape(t, r)
	assert.Contains(t, body, "app_requests_total 3")
}

func TestIncAPIRequest_Concurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.IncAPIRequest()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000.0, testutil.ToFloat64(r.RequestsTotal))
}

func TestObserveHTTP(t *testing.T) {
	r := NewRegistry()

	r.ObserveHTTP("product", "GET", "200", 0.01)
	r.ObserveHTTP("product", "GET", "200", 0.02)
	r.ObserveHTTP("cart", "POST", "400", 0.001)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.HTTPRequests.WithLabelValues("product", "GET", "200")))
	_, body := scrape(t, r)
	assert.Contains(t, body, `app_http_requests_total{group="cart",method="POST",status="400"} 1`)
	assert.Contains(t, body, "app_http_request_duration_seconds_bucket")
}

func TestRecordOrderEventAndBuildInfo(t *testing.T) {
	r := NewRegistry()

	r.RecordOrderEvent("ok")
	r.RecordOrderEvent("error")
	r.RecordOrderEvent("ok")
	r.SetBuildInfo("v1.2.3", "abc123")

	_, body := scrape(t, r)
	assert.Contains(t, body, `app_order_events_published_total{result="ok"} 2`)
	assert.Contains(t, body, `app_build_info{commit="abc123",version="v1.2.3"} 1`)
}

// failingCollector emits an invalid metric so Gather reports an error.
type failingCollector struct {
	desc *prometheus.Desc
}

func (c failingCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c failingCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, errors.New("collector exploded"))
}

func TestHandler_GatherFailure(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(failingCollector{
		desc: prometheus.NewDesc("app_broken", "always fails", nil, nil),
	})

	rec, body := scrape(t, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(body, "collector exploded"), "body: %s", body)

	// The registry keeps working after a failed scrape.
	r.IncAPIRequest()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RequestsTotal))
}
