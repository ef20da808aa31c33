package catalog

import (
	"context"
	"errors"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
)

// ResilientProvider asks the live source first and answers from the
// fallback pool whenever it fails. With a nil live source the pool serves
// every call.
type ResilientProvider struct {
	live     LiveSource
	fallback *FallbackPool
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewResilientProvider(live LiveSource, fallback *FallbackPool, logger providers.Logger, metrics providers.MetricsProviderInterface) *ResilientProvider {
	return &ResilientProvider{
		live:     live,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
	}
}

func (p *ResilientProvider) FetchRandomAlbum(ctx context.Context, genreHint string) models.Album {
	if p.live != nil {
		album, err := p.live.RandomAlbum(ctx, genreHint)
		if err == nil && album.Name != "" {
			return album
		}
		p.degraded("random", err)
	}
	return p.fallback.FetchRandomAlbum(ctx, genreHint)
}

func (p *ResilientProvider) SearchAlbums(ctx context.Context, query string, limit int) []models.Album {
	if p.live != nil {
		albums, err := p.live.Search(ctx, query, limit)
		if err == nil {
			return albums
		}
		p.degraded("search", err)
	}
	return p.fallback.SearchAlbums(ctx, query, limit)
}

// FetchAlbumDetails consults the pool both when the live source fails and
// when it does not know the id, so pool ids stay guessable.
func (p *ResilientProvider) FetchAlbumDetails(ctx context.Context, id string) (models.Album, error) {
	if p.live != nil {
		album, err := p.live.Album(ctx, id)
		if err == nil {
			return album, nil
		}
		if !errors.Is(err, apperrors.ErrAlbumNotFound) {
			p.degraded("details", err)
		}
	}
	return p.fallback.FetchAlbumDetails(ctx, id)
}

func (p *ResilientProvider) degraded(operation string, err error) {
	if err == nil {
		err = errors.New("empty result")
	}
	p.metrics.IncProviderFallbacks(operation)
	p.logger.Warnf(providers.TypeApp, "Album provider %s failed, serving fallback data: %s",
		operation, apperrors.Wrap(apperrors.CodeProviderUnavailable, "live catalog unavailable", err))
}

var _ AlbumProvider = (*ResilientProvider)(nil)
