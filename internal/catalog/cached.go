package catalog

import (
	"context"
	"strconv"

	json "github.com/goccy/go-json"

	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
)

// CachedSource memoises successful live searches and album lookups. Random
// picks are never cached, and failures are never stored, so fallback data
// cannot outlive an outage.
type CachedSource struct {
	inner LiveSource
	cache providers.CacheProviderInterface
}

func NewCachedSource(inner LiveSource, cache providers.CacheProviderInterface) *CachedSource {
	return &CachedSource{inner: inner, cache: cache}
}

func (c *CachedSource) RandomAlbum(ctx context.Context, genreHint string) (models.Album, error) {
	return c.inner.RandomAlbum(ctx, genreHint)
}

func (c *CachedSource) Search(ctx context.Context, query string, limit int) ([]models.Album, error) {
	key := providers.CacheKey(providers.CacheKindSearch, strconv.Itoa(limit), game.Normalize(query))
	if raw, ok := c.cache.Get(key); ok {
		var albums []models.Album
		if err := json.Unmarshal(raw, &albums); err == nil {
			return albums, nil
		}
	}
	albums, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(albums); err == nil {
		c.cache.Set(key, raw)
	}
	return albums, nil
}

func (c *CachedSource) Album(ctx context.Context, id string) (models.Album, error) {
	key := providers.CacheKey(providers.CacheKindAlbum, id)
	if raw, ok := c.cache.Get(key); ok {
		var album models.Album
		if err := json.Unmarshal(raw, &album); err == nil {
			return album, nil
		}
	}
	album, err := c.inner.Album(ctx, id)
	if err != nil {
		return models.Album{}, err
	}
	if raw, err := json.Marshal(album); err == nil {
		c.cache.Set(key, raw)
	}
	return album, nil
}

var _ LiveSource = (*CachedSource)(nil)
