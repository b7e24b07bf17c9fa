package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sanitizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedreader_sanitize_duration_seconds",
		Help:    "Duration of one sanitizer pass",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
	})
	sanitizeInputBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedreader_sanitize_input_bytes",
		Help:    "Size of raw content handed to the sanitizer",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})
	sanitizeTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedreader_sanitize_truncated_total",
		Help: "Inputs cut to the policy size cap before sanitizing",
	})
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedreader_cache_lookups_total",
		Help: "Redis cache lookups by area and result",
	}, []string{"area", "result"})
	articlesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedreader_articles_ingested_total",
		Help: "Articles stored after sanitizing",
	})
	articlesResanitized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedreader_articles_resanitized_total",
		Help: "Stored articles cleaned again after a policy change",
	})
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedreader_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedreader_http_request_duration_seconds",
		Help:    "HTTP request duration by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// ObserveSanitize records one sanitizer pass. Call with time.Now() taken
// before the pass.
func ObserveSanitize(start time.Time, inputBytes int, truncated bool) {
	sanitizeDuration.Observe(time.Since(start).Seconds())
	sanitizeInputBytes.Observe(float64(inputBytes))
	if truncated {
		sanitizeTruncated.Inc()
	}
}

func CacheHit(area string)  { cacheLookups.WithLabelValues(area, "hit").Inc() }
func CacheMiss(area string) { cacheLookups.WithLabelValues(area, "miss").Inc() }

func IncrementArticlesIngested()    { articlesIngested.Inc() }
func IncrementArticlesResanitized() { articlesResanitized.Inc() }

// ObserveHTTP records a finished request.
func ObserveHTTP(route, method, status string, start time.Time) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
