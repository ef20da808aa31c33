package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/catalog"
	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
	"musicwordle/internal/storage"
	"musicwordle/internal/structures"
)

const (
	// SearchLimit is the number of albums returned by a search.
	SearchLimit = 10
	// MinQueryLength is the shortest query that reaches the catalog.
	MinQueryLength = 2

	NewGameMessage = "New game started! Start guessing!"
)

type NewGameResult struct {
	GameID     string `json:"game_id"`
	Message    string `json:"message"`
	MaxGuesses int    `json:"max_guesses"`
}

// GuessInput names the guessed album in one of three ways, tried in order:
// catalog id, full album payload, free text.
type GuessInput struct {
	GameID    string
	AlbumID   string
	Album     *models.Album
	GuessText string
}

type GuessResult struct {
	Correct          bool              `json:"correct"`
	Comparison       models.Comparison `json:"comparison"`
	GuessNumber      int               `json:"guess_number"`
	GuessesRemaining int               `json:"guesses_remaining"`
	GameCompleted    bool              `json:"game_completed"`
	IsWon            bool              `json:"is_won"`
	TargetAlbum      *models.Album     `json:"target_album,omitempty"`
}

type GameServiceInterface interface {
	NewGame(ctx context.Context, genreHint string) (NewGameResult, error)
	SearchAlbums(ctx context.Context, query string) []models.Album
	Guess(ctx context.Context, in GuessInput) (GuessResult, error)
	Status(ctx context.Context, gameID string) (models.GameStatus, error)
	Sweep(ctx context.Context) (int, error)
	ActiveGames(ctx context.Context) (int, error)
}

type GameService struct {
	store     storage.GameStore
	albums    catalog.AlbumProvider
	machine   *game.StateMachine
	retention time.Duration
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	newID     func() string
}

func NewGameService(conf *structures.Config, store storage.GameStore, albums catalog.AlbumProvider, machine *game.StateMachine, logger providers.Logger, metrics providers.MetricsProviderInterface) GameServiceInterface {
	return &GameService{
		store:     store,
		albums:    albums,
		machine:   machine,
		retention: conf.Game.RetentionTTL,
		logger:    logger,
		metrics:   metrics,
		newID:     newGameID,
	}
}

func newGameID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (gs *GameService) NewGame(ctx context.Context, genreHint string) (NewGameResult, error) {
	target := gs.albums.FetchRandomAlbum(ctx, strings.TrimSpace(genreHint))
	if target.Name == "" {
		return NewGameResult{}, apperrors.New(apperrors.CodeInternal, "no target album available")
	}

	var (
		session models.GameSession
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		session, err = gs.store.CreateGame(ctx, gs.newID(), target)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return NewGameResult{}, fmt.Errorf("create game: %w", err)
	}

	gs.metrics.IncGamesCreated()
	gs.logger.Infof(providers.TypeApp, "Game %s started", session.ID)
	gs.logger.Debugf(providers.TypeApp, "Game %s target: %s by %s", session.ID, target.Name, target.Artist)

	return NewGameResult{
		GameID:     session.ID,
		Message:    NewGameMessage,
		MaxGuesses: session.MaxGuesses,
	}, nil
}

// SearchAlbums answers queries shorter than MinQueryLength with no albums
// rather than an error.
func (gs *GameService) SearchAlbums(ctx context.Context, query string) []models.Album {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []models.Album{}
	}
	albums := gs.albums.SearchAlbums(ctx, query, SearchLimit)
	if albums == nil {
		return []models.Album{}
	}
	return albums
}

// Guess checks the request and the session before touching the catalog, so
// invalid or late guesses never cost a lookup or a guess.
func (gs *GameService) Guess(ctx context.Context, in GuessInput) (GuessResult, error) {
	in.GameID = strings.TrimSpace(in.GameID)
	in.AlbumID = strings.TrimSpace(in.AlbumID)
	in.GuessText = strings.TrimSpace(in.GuessText)

	if in.GameID == "" {
		return GuessResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "game_id is required", nil)
	}
	if in.AlbumID == "" && in.Album == nil && in.GuessText == "" {
		return GuessResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "album_id, album or guess_text is required", nil)
	}

	session, err := gs.store.GetGame(ctx, in.GameID)
	if err != nil {
		return GuessResult{}, err
	}
	if session.IsCompleted {
		gs.metrics.IncGuesses(providers.OutcomeRejected)
		return GuessResult{}, apperrors.ErrGameAlreadyCompleted
	}

	guess, err := gs.resolveAlbum(ctx, in)
	if err != nil {
		return GuessResult{}, err
	}

	out, err := gs.store.ApplyGuessAtomic(ctx, in.GameID, guess)
	if err != nil {
		if code := apperrors.CodeOf(err); code == apperrors.CodeGameAlreadyCompleted || code == apperrors.CodeMaxGuessesReached {
			gs.metrics.IncGuesses(providers.OutcomeRejected)
		}
		return GuessResult{}, err
	}

	after := out.Session
	res := GuessResult{
		Correct:          out.Record.IsCorrect,
		Comparison:       out.Record.Comparison,
		GuessNumber:      out.Record.SequenceNumber,
		GuessesRemaining: after.GuessesRemaining(),
		GameCompleted:    after.IsCompleted,
		IsWon:            after.IsWon,
	}
	switch {
	case after.IsWon:
		gs.metrics.IncGuesses(providers.OutcomeWon)
	case after.IsCompleted:
		gs.metrics.IncGuesses(providers.OutcomeLost)
	default:
		gs.metrics.IncGuesses(providers.OutcomeContinue)
	}
	if after.IsCompleted {
		target := after.Target.Clone()
		res.TargetAlbum = &target
		gs.logger.Infof(providers.TypeApp, "Game %s completed after %d guesses, won: %t", after.ID, after.GuessCount, after.IsWon)
	}
	return res, nil
}

func (gs *GameService) resolveAlbum(ctx context.Context, in GuessInput) (models.Album, error) {
	switch {
	case in.AlbumID != "":
		return gs.albums.FetchAlbumDetails(ctx, in.AlbumID)
	case in.Album != nil:
		album := models.NewAlbum(*in.Album)
		if album.Name == "" {
			return models.Album{}, apperrors.Wrap(apperrors.CodeInvalidInput, "album name is required", nil)
		}
		return album, nil
	default:
		found := gs.albums.SearchAlbums(ctx, in.GuessText, 1)
		if len(found) == 0 || found[0].Name == "" {
			return models.Album{}, apperrors.ErrAlbumNotFound
		}
		return found[0], nil
	}
}

func (gs *GameService) Status(ctx context.Context, gameID string) (models.GameStatus, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return models.GameStatus{}, apperrors.Wrap(apperrors.CodeInvalidInput, "game_id is required", nil)
	}
	session, err := gs.store.GetGame(ctx, gameID)
	if err != nil {
		return models.GameStatus{}, err
	}
	return session.Status(), nil
}

// Sweep force-completes sessions older than the retention window.
func (gs *GameService) Sweep(ctx context.Context) (int, error) {
	cutoff := gs.machine.Now().Add(-gs.retention)
	n, err := gs.store.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	gs.metrics.AddExpiredGames(n)
	return n, nil
}

func (gs *GameService) ActiveGames(ctx context.Context) (int, error) {
	return gs.store.CountActive(ctx)
}
