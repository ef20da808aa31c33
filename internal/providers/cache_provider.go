package providers

import (
	"strings"
	"time"
	"unsafe"

	"github.com/coocood/freecache"

	"musicwordle/internal/structures"
)

// Catalog cache namespaces. Keys are "<kind>:<parts...>"; the kind selects the
// entry TTL and the metrics label.
const (
	CacheKindSearch = "search"
	CacheKindAlbum  = "album"
	cacheKindOther  = "other"
)

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// CacheKey joins a namespace and its parts into a cache key.
func CacheKey(kind string, parts ...string) string {
	return kind + ":" + strings.Join(parts, ":")
}

func cacheKind(key string) string {
	kind, _, ok := strings.Cut(key, ":")
	if !ok {
		return cacheKindOther
	}
	switch kind {
	case CacheKindSearch, CacheKindAlbum:
		return kind
	}
	return cacheKindOther
}

// CacheProvider stores catalog payloads in freecache. Album details change
// rarely and keep their own TTL; search results and anything else use the
// general one.
type CacheProvider struct {
	cache    *freecache.Cache
	ttl      int
	albumTTL int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Catalog cache disabled")
		return &noopCache{}
	}

	ttl := ttlSeconds(conf.Cache.TTL)
	albumTTL := ttl
	if conf.Cache.AlbumTTL > 0 {
		albumTTL = ttlSeconds(conf.Cache.AlbumTTL)
	}

	logger.Infof(TypeApp, "Catalog cache initialized: %dMB, search TTL=%ds, album TTL=%ds", conf.Cache.Size, ttl, albumTTL)

	return &CacheProvider{
		cache:    freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:      ttl,
		albumTTL: albumTTL,
	}
}

func ttlSeconds(d time.Duration) int {
	return max(int(d.Seconds()), 1)
}

// keyBytes views key as bytes without copying; freecache copies keys it stores.
func keyBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set(keyBytes(key), value, c.ttlFor(key))
}

func (c *CacheProvider) ttlFor(key string) int {
	if cacheKind(key) == CacheKindAlbum {
		return c.albumTTL
	}
	return c.ttl
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
