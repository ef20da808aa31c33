package models

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// MaxGenres is the number of genre tokens kept per album.
const MaxGenres = 3

type Album struct {
	ID          string   `json:"id" bson:"id"`
	Name        string   `json:"name" bson:"name"`
	Artist      string   `json:"artist" bson:"artist"`
	Year        string   `json:"year" bson:"year"`
	ReleaseDate string   `json:"release_date,omitempty" bson:"release_date,omitempty"`
	Genres      []string `json:"genres" bson:"genres"`
	TotalTracks int      `json:"total_tracks" bson:"total_tracks"`
	Popularity  int      `json:"popularity" bson:"popularity"`
	ImageURL    string   `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// NewAlbum resolves defaults once: trimmed strings, year derived from the
// release date when missing, and genres capped at MaxGenres.
func NewAlbum(a Album) Album {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	a.Artist = strings.TrimSpace(a.Artist)
	a.Year = strings.TrimSpace(a.Year)
	a.ReleaseDate = strings.TrimSpace(a.ReleaseDate)
	if a.Year == "" && a.ReleaseDate != "" {
		a.Year = firstRunes(a.ReleaseDate, 4)
	}
	a.Genres = CapGenres(a.Genres)
	return a
}

// CapGenres drops empty tokens and keeps at most MaxGenres entries in order.
func CapGenres(genres []string) []string {
	out := make([]string, 0, MaxGenres)
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
		if len(out) == MaxGenres {
			break
		}
	}
	return out
}

func (a Album) Clone() Album {
	a.Genres = append([]string(nil), a.Genres...)
	return a
}

// albumPayload mirrors Album with loosely typed numeric fields, since clients
// send year and track counts both as strings and as numbers.
type albumPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	Year        any      `json:"year"`
	ReleaseDate string   `json:"release_date"`
	Genres      []string `json:"genres"`
	TotalTracks any      `json:"total_tracks"`
	Popularity  any      `json:"popularity"`
	ImageURL    string   `json:"image_url"`
}

func (a *Album) UnmarshalJSON(data []byte) error {
	var p albumPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = NewAlbum(Album{
		ID:          p.ID,
		Name:        p.Name,
		Artist:      p.Artist,
		Year:        cast.ToString(p.Year),
		ReleaseDate: p.ReleaseDate,
		Genres:      p.Genres,
		TotalTracks: looseInt(p.TotalTracks),
		Popularity:  looseInt(p.Popularity),
		ImageURL:    p.ImageURL,
	})
	return nil
}

func looseInt(v any) int {
	if s, ok := v.(string); ok {
		return ParseInt(s)
	}
	return cast.ToInt(v)
}

// ParseInt parses a base-10 integer, returning 0 for empty or unparsable
// input. Zero is the defined neutral value for unknown numeric fields.
func ParseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
