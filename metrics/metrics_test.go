package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSanitize_CountsTruncation(t *testing.T) {
	before := testutil.ToFloat64(sanitizeTruncated)

	ObserveSanitize(time.Now(), 10, false)
	ObserveSanitize(time.Now(), 1<<21, true)

	assert.Equal(t, before+1, testutil.ToFloat64(sanitizeTruncated))
}

func TestCacheLookups(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("sanitize", "hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("sanitize", "miss"))

	CacheHit("sanitize")
	CacheMiss("sanitize")
	CacheMiss("sanitize")

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("sanitize", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("sanitize", "miss")))
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/health", "GET", "200"))
	ObserveHTTP("/api/health", "GET", "200", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/api/health", "GET", "200")))
}
