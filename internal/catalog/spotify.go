package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/structures"
)

const (
	defaultBaseURL  = "https://api.spotify.com"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultMarket   = "US"

	randomPageSize   = 50
	randomMaxOffset  = 500
	artistLookupJobs = 4
	unknownArtist    = "Unknown"
)

// randomQueries are the genre searches a target is drawn from when no hint is
// given.
var randomQueries = []string{
	"genre:hip-hop",
	"genre:jazz",
	"genre:r&b",
	"genre:country",
	"genre:metal",
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Artists     []spotifyArtistRef `json:"artists"`
	ReleaseDate string             `json:"release_date"`
	TotalTracks int                `json:"total_tracks"`
	Images      []spotifyImage     `json:"images"`
	Genres      []string           `json:"genres"`
	Popularity  int                `json:"popularity"`
}

type spotifyArtist struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

type spotifySearchResponse struct {
	Albums struct {
		Items []spotifyAlbum `json:"items"`
	} `json:"albums"`
}

// StatusError is a non-2xx answer from the Web API.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify %s: status %d", e.Path, e.Status)
}

// SpotifyClient reads the Spotify Web API with client-credentials auth.
type SpotifyClient struct {
	http    *http.Client
	baseURL string
	market  string
	intN    func(n int) int
}

func NewSpotifyClient(conf structures.SpotifyConfig) *SpotifyClient {
	tokenURL := conf.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cc := &clientcredentials.Config{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	base := &http.Client{Timeout: timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	client := cc.Client(ctx)
	client.Timeout = timeout
	return newSpotifyClient(client, conf.BaseURL, conf.Market)
}

func newSpotifyClient(client *http.Client, baseURL, market string) *SpotifyClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if market == "" {
		market = defaultMarket
	}
	return &SpotifyClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		market:  market,
		intN:    rand.IntN,
	}
}

// RandomAlbum searches a random page of a genre query, picks one result and
// loads its details.
func (c *SpotifyClient) RandomAlbum(ctx context.Context, genreHint string) (models.Album, error) {
	query := "genre:" + strings.TrimSpace(genreHint)
	if strings.TrimSpace(genreHint) == "" {
		query = randomQueries[c.intN(len(randomQueries))]
	}
	params := url.Values{
		"q":      {query},
		"type":   {"album"},
		"limit":  {strconv.Itoa(randomPageSize)},
		"offset": {strconv.Itoa(c.intN(randomMaxOffset + 1))},
		"market": {c.market},
	}
	var res spotifySearchResponse
	if err := c.get(ctx, "/v1/search", params, &res); err != nil {
		return models.Album{}, err
	}
	items := res.Albums.Items
	if len(items) == 0 {
		return models.Album{}, fmt.Errorf("spotify search %q: no albums", query)
	}
	return c.Album(ctx, items[c.intN(len(items))].ID)
}

// Search runs an album search and fills genres from each first artist.
// Artist lookups that fail leave the album without genres.
func (c *SpotifyClient) Search(ctx context.Context, query string, limit int) ([]models.Album, error) {
	params := url.Values{
		"q":      {query},
		"type":   {"album"},
		"limit":  {strconv.Itoa(limit)},
		"market": {c.market},
	}
	var res spotifySearchResponse
	if err := c.get(ctx, "/v1/search", params, &res); err != nil {
		return nil, err
	}

	items := res.Albums.Items
	genres := make([][]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(artistLookupJobs)
	for i, item := range items {
		if len(item.Artists) == 0 || item.Artists[0].ID == "" {
			continue
		}
		g.Go(func() error {
			artist, err := c.artist(gctx, item.Artists[0].ID)
			if err == nil {
				genres[i] = artist.Genres
			}
			return nil
		})
	}
	_ = g.Wait()

	albums := make([]models.Album, 0, len(items))
	for i, item := range items {
		item.Genres = genres[i]
		albums = append(albums, toAlbum(item))
	}
	return albums, nil
}

// Album loads one album, using the first artist's genres when the album has
// none.
func (c *SpotifyClient) Album(ctx context.Context, id string) (models.Album, error) {
	var a spotifyAlbum
	if err := c.get(ctx, "/v1/albums/"+url.PathEscape(id), url.Values{"market": {c.market}}, &a); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Status == http.StatusNotFound || se.Status == http.StatusBadRequest) {
			return models.Album{}, apperrors.Wrap(apperrors.CodeAlbumNotFound, "album not found", err)
		}
		return models.Album{}, err
	}
	if len(a.Genres) == 0 && len(a.Artists) > 0 && a.Artists[0].ID != "" {
		if artist, err := c.artist(ctx, a.Artists[0].ID); err == nil {
			a.Genres = artist.Genres
		}
	}
	return toAlbum(a), nil
}

func (c *SpotifyClient) artist(ctx context.Context, id string) (spotifyArtist, error) {
	var a spotifyArtist
	err := c.get(ctx, "/v1/artists/"+url.PathEscape(id), nil, &a)
	return a, err
}

func (c *SpotifyClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build spotify request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode spotify %s: %w", path, err)
	}
	return nil
}

func toAlbum(a spotifyAlbum) models.Album {
	artist := unknownArtist
	if len(a.Artists) > 0 {
		artist = a.Artists[0].Name
	}
	var image string
	if len(a.Images) > 0 {
		image = a.Images[0].URL
	}
	return models.NewAlbum(models.Album{
		ID:          a.ID,
		Name:        a.Name,
		Artist:      artist,
		ReleaseDate: a.ReleaseDate,
		Genres:      a.Genres,
		TotalTracks: a.TotalTracks,
		Popularity:  a.Popularity,
		ImageURL:    image,
	})
}

var _ LiveSource = (*SpotifyClient)(nil)
