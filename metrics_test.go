package gramsearch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordSearch(2, 5, 10*time.Millisecond, nil)
	m.RecordSearch(1, 0, 30*time.Millisecond, errors.New("boom"))
	m.RecordShardFetch("ab", 100, time.Millisecond, nil)
	m.RecordShardFetch("cd", 0, 3*time.Millisecond, errors.New("timeout"))
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchErrors)
	assert.Equal(t, int64(5), stats.SearchResults)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), stats.SearchAvgNanos)
	assert.Equal(t, int64(2), stats.FetchCount)
	assert.Equal(t, int64(1), stats.FetchErrors)
	assert.Equal(t, int64(100), stats.FetchBytes)
	assert.Equal(t, (2 * time.Millisecond).Nanoseconds(), stats.FetchAvgNanos)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.SearchAvgNanos)
	assert.Zero(t, stats.FetchAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	mc.RecordSearch(1, 1, time.Second, nil)
	mc.RecordShardFetch("a", 1, time.Second, nil)
	mc.RecordCacheLookup(true)
}
