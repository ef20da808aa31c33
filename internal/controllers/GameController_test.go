package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/services"
	"musicwordle/internal/testutil"
)

// --- local mocks (scoped to controller tests) ---

type mockService struct {
	newGameHints []string
	newGameErr   error
	queries      []string
	searchResult []models.Album
	guesses      []services.GuessInput
	guessResult  services.GuessResult
	guessErr     error
	status       models.GameStatus
	statusErr    error
	active       int
	activeErr    error
}

func (m *mockService) NewGame(_ context.Context, genre string) (services.NewGameResult, error) {
	m.newGameHints = append(m.newGameHints, genre)
	if m.newGameErr != nil {
		return services.NewGameResult{}, m.newGameErr
	}
	return services.NewGameResult{GameID: "g1", Message: services.NewGameMessage, MaxGuesses: 6}, nil
}

func (m *mockService) SearchAlbums(_ context.Context, query string) []models.Album {
	m.queries = append(m.queries, query)
	if m.searchResult == nil {
		return []models.Album{}
	}
	return m.searchResult
}

func (m *mockService) Guess(_ context.Context, in services.GuessInput) (services.GuessResult, error) {
	m.guesses = append(m.guesses, in)
	return m.guessResult, m.guessErr
}

func (m *mockService) Status(_ context.Context, gameID string) (models.GameStatus, error) {
	if m.statusErr != nil {
		return models.GameStatus{}, m.statusErr
	}
	st := m.status
	st.GameID = gameID
	return st, nil
}

func (m *mockService) Sweep(_ context.Context) (int, error) { return 0, nil }

func (m *mockService) ActiveGames(_ context.Context) (int, error) { return m.active, m.activeErr }

// --- helpers ---

func newTestController(svc *mockService) (*GameController, *testutil.MockLogger) {
	logger := &testutil.MockLogger{}
	return NewGameController(logger, svc), logger
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func abbeyRoad() models.Album {
	return models.Album{
		ID:          "abbey",
		Name:        "Abbey Road",
		Artist:      "The Beatles",
		Year:        "1969",
		Genres:      []string{"rock", "pop"},
		TotalTracks: 17,
		Popularity:  85,
	}
}

// --- NewGame ---

func TestNewGame_EmptyBody(t *testing.T) {
	svc := &mockService{}
	gc, _ := newTestController(svc)

	rr := post(gc.NewGame, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "g1", resp["game_id"])
	assert.Equal(t, float64(6), resp["max_guesses"])
	assert.Equal(t, services.NewGameMessage, resp["message"])
	assert.Equal(t, []string{""}, svc.newGameHints)
}

func TestNewGame_GenreHint(t *testing.T) {
	svc := &mockService{}
	gc, _ := newTestController(svc)

	rr := post(gc.NewGame, `{"genre":"jazz"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"jazz"}, svc.newGameHints)
}

func TestNewGame_InternalErrorIsHidden(t *testing.T) {
	svc := &mockService{newGameErr: errors.New("disk on fire")}
	gc, logger := newTestController(svc)

	rr := post(gc.NewGame, "{}")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, apperrors.CodeInternal, resp.Code)
	assert.NotContains(t, resp.Error, "disk")
	assert.Equal(t, 1, logger.Count("error"))
}

// --- SearchAlbums ---

func TestSearchAlbums_ReturnsAlbums(t *testing.T) {
	svc := &mockService{searchResult: []models.Album{abbeyRoad()}}
	gc, _ := newTestController(svc)

	rr := post(gc.SearchAlbums, `{"query":"abbey"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Albums []models.Album `json:"albums"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Albums, 1)
	assert.Equal(t, "Abbey Road", resp.Albums[0].Name)
	assert.Equal(t, []string{"abbey"}, svc.queries)
}

func TestSearchAlbums_EmptyQueryIsEmptyList(t *testing.T) {
	svc := &mockService{}
	gc, _ := newTestController(svc)

	rr := post(gc.SearchAlbums, `{"query":""}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"albums":[]}`, rr.Body.String())
}

func TestSearchAlbums_MissingQuery(t *testing.T) {
	for _, body := range []string{`{}`, `{"query":null}`, ``} {
		svc := &mockService{}
		gc, _ := newTestController(svc)

		rr := post(gc.SearchAlbums, body)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "body %q", body)
		assert.Equal(t, apperrors.CodeInvalidInput, decodeError(t, rr).Code)
		assert.Empty(t, svc.queries)
	}
}

// --- Guess ---

func TestGuess_PassesAllReferences(t *testing.T) {
	svc := &mockService{}
	gc, _ := newTestController(svc)

	rr := post(gc.Guess, `{"game_id":"g1","album_id":"abbey","guess_text":"abbey road","album":{"name":"Abbey Road","year":1969,"total_tracks":"17"}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, svc.guesses, 1)
	in := svc.guesses[0]
	assert.Equal(t, "g1", in.GameID)
	assert.Equal(t, "abbey", in.AlbumID)
	assert.Equal(t, "abbey road", in.GuessText)
	require.NotNil(t, in.Album)
	assert.Equal(t, "1969", in.Album.Year)
	assert.Equal(t, 17, in.Album.TotalTracks)
}

func TestGuess_MalformedJSON(t *testing.T) {
	svc := &mockService{}
	gc, _ := newTestController(svc)

	rr := post(gc.Guess, `{"game_id":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decodeError(t, rr).Code)
	assert.Empty(t, svc.guesses)
}

func TestGuess_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrInvalidInput, http.StatusBadRequest},
		{apperrors.ErrGameNotFound, http.StatusNotFound},
		{apperrors.ErrAlbumNotFound, http.StatusNotFound},
		{apperrors.ErrMaxGuessesReached, http.StatusConflict},
		{apperrors.ErrGameAlreadyCompleted, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(string(apperrors.CodeOf(tc.err)), func(t *testing.T) {
			gc, _ := newTestController(&mockService{guessErr: tc.err})

			rr := post(gc.Guess, `{"game_id":"g1","album_id":"x"}`)

			assert.Equal(t, tc.status, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, apperrors.CodeOf(tc.err), resp.Code)
			assert.Equal(t, apperrors.PublicMessage(tc.err), resp.Error)
		})
	}
}

func TestGuess_GoldenResponses(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	ongoing := services.GuessResult{
		Comparison: models.Comparison{
			Album:  models.Verdict(models.StatusIncorrect),
			Artist: models.Verdict(models.StatusPartial),
			Year:   models.FieldVerdict{Status: models.StatusClose, Direction: models.DirectionHigher},
			Decade: models.Verdict(models.StatusCorrect),
			Genre:  models.Verdict(models.StatusPartial),
			Tracks: models.Verdict(models.StatusIncorrect),
		},
		GuessNumber:      2,
		GuessesRemaining: 4,
	}
	gc, _ := newTestController(&mockService{guessResult: ongoing})
	rr := post(gc.Guess, `{"game_id":"g1","album_id":"x"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	g.Assert(t, "guess_ongoing", rr.Body.Bytes())

	target := abbeyRoad()
	won := services.GuessResult{
		Correct: true,
		Comparison: models.Comparison{
			Album:  models.Verdict(models.StatusCorrect),
			Artist: models.Verdict(models.StatusCorrect),
			Year:   models.Verdict(models.StatusCorrect),
			Decade: models.Verdict(models.StatusCorrect),
			Genre:  models.Verdict(models.StatusPartial),
			Tracks: models.Verdict(models.StatusCorrect),
		},
		GuessNumber:      3,
		GuessesRemaining: 3,
		GameCompleted:    true,
		IsWon:            true,
		TargetAlbum:      &target,
	}
	gc, _ = newTestController(&mockService{guessResult: won})
	rr = post(gc.Guess, `{"game_id":"g1","album_id":"abbey"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	g.Assert(t, "guess_won", rr.Body.Bytes())
}

// --- GameStatus ---

func TestGameStatus(t *testing.T) {
	svc := &mockService{status: models.GameStatus{GuessCount: 2, GuessesRemaining: 4, MaxGuesses: 6}}
	gc, _ := newTestController(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/game-status?game_id=g7", nil)
	rr := httptest.NewRecorder()
	gc.GameStatus(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"game_id":"g7","guess_count":2,"guesses_remaining":4,"is_completed":false,"is_won":false,"max_guesses":6}`, rr.Body.String())
}

func TestGameStatus_NotFound(t *testing.T) {
	gc, logger := newTestController(&mockService{statusErr: apperrors.ErrGameNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/game-status?game_id=nope", nil)
	rr := httptest.NewRecorder()
	gc.GameStatus(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apperrors.CodeGameNotFound, decodeError(t, rr).Code)
	assert.Equal(t, 0, logger.Count("error"))
}
