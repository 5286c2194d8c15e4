package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and upload Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_backend_requests_total",
			Help:      "Total number of search backend calls",
		},
		[]string{"driver", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_backend_duration_seconds",
			Help:      "Search backend call duration in seconds, including normalization",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"driver"},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Number of records returned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Menu file uploads by outcome",
		},
		[]string{"extension", "status"},
	)

	UploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes written to the blob store",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and upload metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchRequestDuration,
		SearchResultsReturned,
		UploadsTotal,
		UploadBytesTotal,
	)
	searchMetricsRegistered = true
}
