package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cacheMetricsTestMetrics struct {
	mockMetrics
	hits   map[string]int
	misses map[string]int
}

func newCacheMetricsTestMetrics() *cacheMetricsTestMetrics {
	return &cacheMetricsTestMetrics{hits: map[string]int{}, misses: map[string]int{}}
}

func (m *cacheMetricsTestMetrics) IncCacheHits(kind string)   { m.hits[kind]++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses(kind string) { m.misses[kind]++ }

type mapCache map[string][]byte

func (c mapCache) Get(key string) ([]byte, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(key string, value []byte) { c[key] = value }

func TestMetricsCacheProvider_CountsPerKind(t *testing.T) {
	inner := mapCache{
		CacheKey(CacheKindAlbum, "illmatic"): []byte(`{}`),
	}
	metrics := newCacheMetricsTestMetrics()
	cache := &MetricsCacheProvider{inner: inner, metrics: metrics}

	_, ok := cache.Get(CacheKey(CacheKindAlbum, "illmatic"))
	assert.True(t, ok)
	cache.Get(CacheKey(CacheKindAlbum, "missing"))
	cache.Get(CacheKey(CacheKindSearch, "10", "nas"))
	cache.Get("unscoped")

	assert.Equal(t, map[string]int{CacheKindAlbum: 1}, metrics.hits)
	assert.Equal(t, map[string]int{CacheKindAlbum: 1, CacheKindSearch: 1, cacheKindOther: 1}, metrics.misses)
}

func TestMetricsCacheProvider_SetDelegates(t *testing.T) {
	inner := mapCache{}
	cache := &MetricsCacheProvider{inner: inner, metrics: newCacheMetricsTestMetrics()}

	cache.Set("album:x", []byte("v"))
	assert.Equal(t, []byte("v"), inner["album:x"])
}

func TestNewInstrumentedCacheProvider_DisabledIsNotWrapped(t *testing.T) {
	metrics := newCacheMetricsTestMetrics()
	c := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Minute), &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, c)

	c.Get("album:x")
	assert.Empty(t, metrics.misses)
}

func TestNewInstrumentedCacheProvider_ZeroSizeIsNotWrapped(t *testing.T) {
	c := NewInstrumentedCacheProvider(cacheConfig(true, 0, time.Minute), &cacheTestLogger{}, newCacheMetricsTestMetrics())
	assert.IsType(t, &noopCache{}, c)
}
