// Package storagetest holds the behaviour every GameStore backend must share.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/storage"
)

// Factory opens an empty store driven by machine.
type Factory func(t *testing.T, machine *game.StateMachine) storage.GameStore

// Now is the clock every suite machine runs on.
var Now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func Machine() *game.StateMachine {
	return game.NewStateMachine(models.DefaultMaxGuesses).WithClock(func() time.Time { return Now })
}

func Target() models.Album {
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

func Wrong() models.Album {
	return models.Album{
		ID:          "thriller",
		Name:        "Thriller",
		Artist:      "Michael Jackson",
		Year:        "1982",
		Genres:      []string{"pop"},
		TotalTracks: 9,
	}
}

// Run executes the shared GameStore behaviour against the backend.
func Run(t *testing.T, open Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, open) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, open) })
	t.Run("UnknownGame", func(t *testing.T) { testUnknownGame(t, open) })
	t.Run("WinFlow", func(t *testing.T) { testWinFlow(t, open) })
	t.Run("LoseFlow", func(t *testing.T) { testLoseFlow(t, open) })
	t.Run("GuessAfterCompletion", func(t *testing.T) { testGuessAfterCompletion(t, open) })
	t.Run("ConcurrentGuesses", func(t *testing.T) { testConcurrentGuesses(t, open) })
	t.Run("ExpireOlderThan", func(t *testing.T) { testExpireOlderThan(t, open) })
}

func testCreateAndGet(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())

	created, err := s.CreateGame(ctx, "g1", Target())
	require.NoError(t, err)
	assert.Equal(t, "g1", created.ID)
	assert.Equal(t, models.DefaultMaxGuesses, created.MaxGuesses)

	got, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	assert.True(t, got.CreatedAt.Equal(Now))
	assert.False(t, got.IsCompleted)
	assert.Empty(t, got.Guesses)
	assert.Equal(t, Target(), got.Target)

	active, err := s.IsActive(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, active)

	n, err := s.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testCreateDuplicate(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())

	_, err := s.CreateGame(ctx, "dup", Target())
	require.NoError(t, err)
	_, err = s.CreateGame(ctx, "dup", Wrong())
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := s.GetGame(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "Abbey Road", got.Target.Name)
}

func testUnknownGame(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())

	_, err := s.GetGame(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrGameNotFound)
	_, err = s.IsActive(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrGameNotFound)
	_, err = s.ApplyGuessAtomic(ctx, "missing", Wrong())
	assert.ErrorIs(t, err, apperrors.ErrGameNotFound)
}

func testWinFlow(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())
	_, err := s.CreateGame(ctx, "g1", Target())
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		out, err := s.ApplyGuessAtomic(ctx, "g1", Wrong())
		require.NoError(t, err)
		assert.Equal(t, i, out.Record.SequenceNumber)
		assert.False(t, out.Session.IsCompleted)
	}
	out, err := s.ApplyGuessAtomic(ctx, "g1", Target())
	require.NoError(t, err)
	assert.True(t, out.Record.IsCorrect)
	assert.Equal(t, 3, out.Record.SequenceNumber)
	assert.True(t, out.Session.IsWon)
	assert.Equal(t, 3, out.Session.GuessesRemaining())

	got, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.True(t, got.IsWon)
	assert.Equal(t, 3, got.GuessCount)
	require.Len(t, got.Guesses, 3)
	assert.Equal(t, "Thriller", got.Guesses[0].Guess.Name)
	assert.Equal(t, models.StatusCorrect, got.Guesses[2].Comparison.Album.Status)

	active, err := s.IsActive(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, active)
}

func testLoseFlow(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())
	_, err := s.CreateGame(ctx, "g1", Target())
	require.NoError(t, err)

	var out models.GuessOutcome
	for i := 0; i < models.DefaultMaxGuesses; i++ {
		out, err = s.ApplyGuessAtomic(ctx, "g1", Wrong())
		require.NoError(t, err)
	}
	assert.True(t, out.Session.IsCompleted)
	assert.False(t, out.Session.IsWon)
	assert.Equal(t, 0, out.Session.GuessesRemaining())

	n, err := s.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testGuessAfterCompletion(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t, Machine())
	_, err := s.CreateGame(ctx, "g1", Target())
	require.NoError(t, err)
	_, err = s.ApplyGuessAtomic(ctx, "g1", Target())
	require.NoError(t, err)

	_, err = s.ApplyGuessAtomic(ctx, "g1", Wrong())
	assert.ErrorIs(t, err, apperrors.ErrGameAlreadyCompleted)

	got, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, got.Guesses, 1)
	assert.True(t, got.IsWon)
}

func testConcurrentGuesses(t *testing.T, open Factory) {
	ctx := context.Background()
	const workers = 5
	machine := game.NewStateMachine(workers).WithClock(func() time.Time { return Now })
	s := open(t, machine)
	_, err := s.CreateGame(ctx, "g1", Target())
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs []int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.ApplyGuessAtomic(ctx, "g1", Wrong())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seqs = append(seqs, out.Record.SequenceNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(seqs)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seqs)

	got, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, got.Guesses, workers)
	assert.Equal(t, workers, got.GuessCount)
	assert.True(t, got.IsCompleted)
	assert.False(t, got.IsWon)
}

func testExpireOlderThan(t *testing.T, open Factory) {
	ctx := context.Background()
	old := Machine()
	s := open(t, old)

	_, err := s.CreateGame(ctx, "stale", Target())
	require.NoError(t, err)
	_, err = s.CreateGame(ctx, "won", Target())
	require.NoError(t, err)
	_, err = s.ApplyGuessAtomic(ctx, "won", Target())
	require.NoError(t, err)

	n, err := s.ExpireOlderThan(ctx, Now)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "sessions created at the cutoff stay active")

	n, err = s.ExpireOlderThan(ctx, Now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stale, err := s.GetGame(ctx, "stale")
	require.NoError(t, err)
	assert.True(t, stale.IsCompleted)
	assert.False(t, stale.IsWon)
	assert.Empty(t, stale.Guesses)

	won, err := s.GetGame(ctx, "won")
	require.NoError(t, err)
	assert.True(t, won.IsWon)

	n, err = s.ExpireOlderThan(ctx, Now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
