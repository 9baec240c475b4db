package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
	"workdiary/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncEntriesIngested()
	IncIngestFailures(reason string)
	IncImagesSaved(source string, bytes int)
	ObserveFetchDuration(duration time.Duration)
	SetEntriesTotal(count int64)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	entriesIngested prometheus.Counter
	ingestFailures  *prometheus.CounterVec
	imagesSaved     *prometheus.CounterVec
	imageBytes      prometheus.Counter
	fetchDuration   prometheus.Histogram
	entriesTotal    prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncEntriesIngested() {
	m.entriesIngested.Inc()
}

func (m *MetricsProvider) IncIngestFailures(reason string) {
	m.ingestFailures.WithLabelValues(reason).Inc()
}

func (m *MetricsProvider) IncImagesSaved(source string, bytes int) {
	m.imagesSaved.WithLabelValues(source).Inc()
	m.imageBytes.Add(float64(bytes))
}

func (m *MetricsProvider) ObserveFetchDuration(duration time.Duration) {
	m.fetchDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetEntriesTotal(count int64) {
	m.entriesTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "workdiary_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workdiary_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workdiary_cache_hits_total",
			Help: "Total number of query cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workdiary_cache_misses_total",
			Help: "Total number of query cache misses",
		}),

		entriesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workdiary_entries_ingested_total",
			Help: "Total number of snapshots stored",
		}),

		ingestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "workdiary_ingest_failures_total",
			Help: "Rejected or failed ingestions by reason",
		}, []string{"reason"}),

		imagesSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "workdiary_images_saved_total",
			Help: "Images written, by supply mode",
		}, []string{"source"}),

		imageBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workdiary_image_bytes_total",
			Help: "Total decoded image bytes written",
		}),

		fetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "workdiary_fetch_duration_seconds",
			Help:    "Remote image fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		entriesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "workdiary_entries",
			Help: "Number of non-deleted entries in the store",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncEntriesIngested()                              {}
func (n *noopMetrics) IncIngestFailures(_ string)                       {}
func (n *noopMetrics) IncImagesSaved(_ string, _ int)                   {}
func (n *noopMetrics) ObserveFetchDuration(_ time.Duration)             {}
func (n *noopMetrics) SetEntriesTotal(_ int64)                          {}
