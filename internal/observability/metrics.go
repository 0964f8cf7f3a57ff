// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Job metrics
	JobsCreated    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsInProgress prometheus.Gauge
	JobRetries     prometheus.Counter
	JobDuration    prometheus.Histogram

	// Preview metrics
	PreviewsGenerated prometheus.Counter
	PreviewCacheHits  prometheus.Counter
	PreviewFailures   prometheus.Counter

	// Storage metrics
	CleanupMediaTotal prometheus.Counter
	CleanupFilesTotal prometheus.Counter
	StoredMediaTotal  prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		JobsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "created_total",
			Help:      "Total number of download jobs created",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Total number of download jobs completed successfully",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Total number of download jobs that exhausted their retries",
		}),
		JobsInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "in_progress",
			Help:      "Number of download jobs currently in progress",
		}),
		JobRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "retries_total",
			Help:      "Total number of download attempts retried after failure",
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vidgrab",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Histogram of download job duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),

		PreviewsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "previews",
			Name:      "generated_total",
			Help:      "Total number of preview clips generated",
		}),
		PreviewCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "previews",
			Name:      "cache_hits_total",
			Help:      "Total number of preview requests served from the memo cache",
		}),
		PreviewFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "previews",
			Name:      "failures_total",
			Help:      "Total number of preview generations that failed",
		}),

		CleanupMediaTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "storage",
			Name:      "cleanup_media_total",
			Help:      "Total number of expired media records evicted",
		}),
		CleanupFilesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "storage",
			Name:      "cleanup_files_total",
			Help:      "Total number of expired preview files deleted",
		}),
		StoredMediaTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "vidgrab",
			Subsystem: "storage",
			Name:      "media_current",
			Help:      "Current number of stored media records",
		}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidgrab",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidgrab",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// JobTimer returns a function to record job duration.
func (m *Metrics) JobTimer() func() {
	start := time.Now()

	return func() {
		m.JobDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJobCreated increments the jobs created counter.
func (m *Metrics) RecordJobCreated() {
	m.JobsCreated.Inc()
	m.JobsInProgress.Inc()
}

// RecordJobCompleted records a completed job.
func (m *Metrics) RecordJobCompleted() {
	m.JobsCompleted.Inc()
	m.JobsInProgress.Dec()
}

// RecordJobFailed records a failed job.
func (m *Metrics) RecordJobFailed() {
	m.JobsFailed.Inc()
	m.JobsInProgress.Dec()
}

// RecordCleanup records cleanup metrics.
func (m *Metrics) RecordCleanup(media, files int) {
	m.CleanupMediaTotal.Add(float64(media))
	m.CleanupFilesTotal.Add(float64(files))
}

// SetStoredMedia sets the number of stored media records.
func (m *Metrics) SetStoredMedia(count int) {
	m.StoredMediaTotal.Set(float64(count))
}
