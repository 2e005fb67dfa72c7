package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DocumentCounter reports the number of stored documents per collection.
type DocumentCounter interface {
	CountDocuments(ctx context.Context) (map[string]int, error)
}

// StoreCollector exports document store statistics at scrape time.
//
// A failing store is reported through app_store_up 0 rather than an exposition
// error, so an unhealthy database never hides the rest of the metrics.
type StoreCollector struct {
	store   DocumentCounter
	timeout time.Duration

	up        *prometheus.Desc
	documents *prometheus.Desc
}

// NewStoreCollector creates a collector over the given store.
func NewStoreCollector(store DocumentCounter, driver string) *StoreCollector {
	constLabels := prometheus.Labels{"driver": driver}
	return &StoreCollector{
		store:   store,
		timeout: 2 * time.Second,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "up"),
			"Whether the last document store statistics query succeeded",
			nil, constLabels,
		),
		documents: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "store", "documents"),
			"Number of stored documents per collection",
			[]string{"collection"}, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.documents
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.store.CountDocuments(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	for collection, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.documents, prometheus.GaugeValue, float64(n), collection)
	}
}
