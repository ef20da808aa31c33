package catalog

import (
	"context"
	"math/rand/v2"
	"strings"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
)

// FallbackSearchLimit caps pool search results.
const FallbackSearchLimit = 8

var featuredAlbums = []models.Album{
	{ID: "mock1", Name: "Abbey Road", Artist: "The Beatles", ReleaseDate: "1969-09-26", Year: "1969",
		Genres: []string{"rock", "pop rock", "psychedelic rock"}, TotalTracks: 17, Popularity: 85},
	{ID: "mock2", Name: "Dark Side of the Moon", Artist: "Pink Floyd", ReleaseDate: "1973-03-01", Year: "1973",
		Genres: []string{"progressive rock", "psychedelic rock", "art rock"}, TotalTracks: 10, Popularity: 90},
	{ID: "mock3", Name: "Thriller", Artist: "Michael Jackson", ReleaseDate: "1982-11-30", Year: "1982",
		Genres: []string{"pop", "rock", "funk"}, TotalTracks: 9, Popularity: 95},
	{ID: "mock4", Name: "Nevermind", Artist: "Nirvana", ReleaseDate: "1991-09-24", Year: "1991",
		Genres: []string{"grunge", "alternative rock", "punk"}, TotalTracks: 12, Popularity: 88},
}

var searchableAlbums = []models.Album{
	{ID: "mock1", Name: "Abbey Road", Artist: "The Beatles", Year: "1969", Genres: []string{"rock"}, TotalTracks: 17},
	{ID: "mock2", Name: "Dark Side of the Moon", Artist: "Pink Floyd", Year: "1973", Genres: []string{"progressive rock"}, TotalTracks: 10},
	{ID: "mock3", Name: "Thriller", Artist: "Michael Jackson", Year: "1982", Genres: []string{"pop"}, TotalTracks: 9},
	{ID: "mock4", Name: "Nevermind", Artist: "Nirvana", Year: "1991", Genres: []string{"grunge"}, TotalTracks: 12},
	{ID: "mock5", Name: "OK Computer", Artist: "Radiohead", Year: "1997", Genres: []string{"alternative rock"}, TotalTracks: 12},
	{ID: "mock6", Name: "Kind of Blue", Artist: "Miles Davis", Year: "1959", Genres: []string{"jazz"}, TotalTracks: 5},
	{ID: "mock7", Name: "Pet Sounds", Artist: "The Beach Boys", Year: "1966", Genres: []string{"pop"}, TotalTracks: 13},
	{ID: "mock8", Name: "The Velvet Underground & Nico", Artist: "The Velvet Underground", Year: "1967", Genres: []string{"art rock"}, TotalTracks: 11},
}

// FallbackPool serves a fixed record set. Random picks come from the four
// featured albums; search and details cover all eight.
type FallbackPool struct {
	intN func(n int) int
}

func NewFallbackPool() *FallbackPool {
	return &FallbackPool{intN: rand.IntN}
}

// WithRand replaces the random index source.
func (p *FallbackPool) WithRand(intN func(n int) int) *FallbackPool {
	return &FallbackPool{intN: intN}
}

// FetchRandomAlbum prefers featured albums carrying a genre that contains
// the hint and falls back to the whole featured set.
func (p *FallbackPool) FetchRandomAlbum(_ context.Context, genreHint string) models.Album {
	candidates := featuredAlbums
	if hint := strings.ToLower(strings.TrimSpace(genreHint)); hint != "" {
		var matching []models.Album
		for _, a := range featuredAlbums {
			if hasGenre(a, hint) {
				matching = append(matching, a)
			}
		}
		if len(matching) > 0 {
			candidates = matching
		}
	}
	return candidates[p.intN(len(candidates))].Clone()
}

// SearchAlbums matches the query as a case-insensitive substring of the name
// or artist.
func (p *FallbackPool) SearchAlbums(_ context.Context, query string, limit int) []models.Album {
	if limit <= 0 || limit > FallbackSearchLimit {
		limit = FallbackSearchLimit
	}
	q := strings.ToLower(query)
	out := []models.Album{}
	for _, a := range searchableAlbums {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Artist), q) {
			out = append(out, a.Clone())
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// FetchAlbumDetails returns the richest record known for id.
func (p *FallbackPool) FetchAlbumDetails(_ context.Context, id string) (models.Album, error) {
	for _, set := range [][]models.Album{featuredAlbums, searchableAlbums} {
		for _, a := range set {
			if a.ID == id {
				return a.Clone(), nil
			}
		}
	}
	return models.Album{}, apperrors.ErrAlbumNotFound
}

func hasGenre(a models.Album, hint string) bool {
	for _, g := range a.Genres {
		if strings.Contains(strings.ToLower(g), hint) {
			return true
		}
	}
	return false
}

var _ AlbumProvider = (*FallbackPool)(nil)
