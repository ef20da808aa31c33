// Package catalog supplies album records: a live Spotify source, a fixed
// fallback pool, and decorators that make the pair safe to call from
// request handlers.
package catalog

import (
	"context"

	"musicwordle/internal/models"
)

// AlbumProvider is what the game needs from a catalog. Implementations never
// surface transport failures: FetchRandomAlbum and SearchAlbums always
// answer, and FetchAlbumDetails fails only with apperrors.ErrAlbumNotFound.
type AlbumProvider interface {
	FetchRandomAlbum(ctx context.Context, genreHint string) models.Album
	SearchAlbums(ctx context.Context, query string, limit int) []models.Album
	FetchAlbumDetails(ctx context.Context, id string) (models.Album, error)
}

// LiveSource is a catalog that can fail.
type LiveSource interface {
	RandomAlbum(ctx context.Context, genreHint string) (models.Album, error)
	Search(ctx context.Context, query string, limit int) ([]models.Album, error)
	Album(ctx context.Context, id string) (models.Album, error)
}
