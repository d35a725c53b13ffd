// Package metrics provides Prometheus metrics for the catalog pipelines:
//   - catalog_fetch_total: Counter with catalog and result labels
//   - catalog_cache_hits_total: Counter with catalog label
//   - catalog_pages_scraped_total: Counter with catalog label
//   - catalog_records_total: Counter with catalog label
//
// All metrics are registered with the Prometheus default registry during
// package initialization and exposed by the optional debug server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_total",
			Help: "Total acquisition attempts by outcome (download, error)",
		},
		[]string{"catalog", "result"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Raw artifacts served from the cache without a download",
		},
		[]string{"catalog"},
	)

	PagesScrapedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_pages_scraped_total",
			Help: "List pages fetched by the pagination fallback",
		},
		[]string{"catalog"},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_records_total",
			Help: "Canonical records written to output tables",
		},
		[]string{"catalog"},
	)

	// Debug server request metrics

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Debug server requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Debug server request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Debug server requests currently being served",
		},
	)
)

func init() {
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(PagesScrapedTotal)
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
}
