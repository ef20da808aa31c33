package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/testutil"
)

type stubSource struct {
	album     models.Album
	albums    []models.Album
	err       error
	albumErr  error
	searches  int
	lookups   int
	randomErr error
}

func (s *stubSource) RandomAlbum(_ context.Context, _ string) (models.Album, error) {
	if s.randomErr != nil {
		return models.Album{}, s.randomErr
	}
	return s.album, s.err
}

func (s *stubSource) Search(_ context.Context, _ string, _ int) ([]models.Album, error) {
	s.searches++
	return s.albums, s.err
}

func (s *stubSource) Album(_ context.Context, _ string) (models.Album, error) {
	s.lookups++
	if s.albumErr != nil {
		return models.Album{}, s.albumErr
	}
	return s.album, s.err
}

var errTransport = errors.New("dial tcp: connection refused")

func illmatic() models.Album {
	return models.Album{ID: "illmatic", Name: "Illmatic", Artist: "Nas", Year: "1994", Genres: []string{"hip hop"}, TotalTracks: 10}
}

func newResilient(live LiveSource) (*ResilientProvider, *testutil.MockMetrics, *testutil.MockLogger) {
	metrics := testutil.NewMockMetrics()
	logger := &testutil.MockLogger{}
	return NewResilientProvider(live, NewFallbackPool().WithRand(firstIndex), logger, metrics), metrics, logger
}

func TestResilientProvider_UsesLiveSource(t *testing.T) {
	ctx := context.Background()
	live := &stubSource{album: illmatic(), albums: []models.Album{illmatic()}}
	p, metrics, _ := newResilient(live)

	assert.Equal(t, "Illmatic", p.FetchRandomAlbum(ctx, "").Name)
	assert.Equal(t, []models.Album{illmatic()}, p.SearchAlbums(ctx, "ill", 10))
	a, err := p.FetchAlbumDetails(ctx, "illmatic")
	require.NoError(t, err)
	assert.Equal(t, "Illmatic", a.Name)
	assert.Empty(t, metrics.ProviderFallbacks)
}

func TestResilientProvider_FallsBackOnTransportErrors(t *testing.T) {
	ctx := context.Background()
	live := &stubSource{err: errTransport}
	p, metrics, logger := newResilient(live)

	assert.Equal(t, "Abbey Road", p.FetchRandomAlbum(ctx, "").Name)

	res := p.SearchAlbums(ctx, "nirvana", 10)
	require.Len(t, res, 1)
	assert.Equal(t, "Nevermind", res[0].Name)

	a, err := p.FetchAlbumDetails(ctx, "mock2")
	require.NoError(t, err)
	assert.Equal(t, "Dark Side of the Moon", a.Name)

	assert.Equal(t, map[string]int{"random": 1, "search": 1, "details": 1}, metrics.ProviderFallbacks)
	assert.Equal(t, 3, logger.Count("warn"))
}

func TestResilientProvider_EmptyRandomFallsBack(t *testing.T) {
	p, metrics, _ := newResilient(&stubSource{})

	assert.Equal(t, "Abbey Road", p.FetchRandomAlbum(context.Background(), "").Name)
	assert.Equal(t, 1, metrics.ProviderFallbacks["random"])
}

func TestResilientProvider_UnknownIDChecksPoolWithoutCountingFallback(t *testing.T) {
	ctx := context.Background()
	live := &stubSource{albumErr: apperrors.ErrAlbumNotFound}
	p, metrics, _ := newResilient(live)

	a, err := p.FetchAlbumDetails(ctx, "mock1")
	require.NoError(t, err)
	assert.Equal(t, "Abbey Road", a.Name)

	_, err = p.FetchAlbumDetails(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrAlbumNotFound)
	assert.Empty(t, metrics.ProviderFallbacks)
}

func TestResilientProvider_TransportErrorNeverSurfaces(t *testing.T) {
	live := &stubSource{err: errTransport}
	p, _, _ := newResilient(live)

	_, err := p.FetchAlbumDetails(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrAlbumNotFound)
	assert.NotErrorIs(t, err, errTransport)
}

func TestResilientProvider_WithoutLiveSource(t *testing.T) {
	p, metrics, _ := newResilient(nil)

	assert.Equal(t, "Abbey Road", p.FetchRandomAlbum(context.Background(), "").Name)
	assert.Len(t, p.SearchAlbums(context.Background(), "o", 10), 7)
	assert.Empty(t, metrics.ProviderFallbacks)
}
