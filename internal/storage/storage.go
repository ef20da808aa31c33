// Package storage defines the session store contract shared by every backend.
package storage

import (
	"context"
	"errors"
	"time"

	"musicwordle/internal/models"
)

// ErrAlreadyExists is returned by CreateGame when the id is taken.
var ErrAlreadyExists = errors.New("game already exists")

// GameStore keeps game sessions. Lookups of unknown ids fail with
// apperrors.ErrGameNotFound. ApplyGuessAtomic is serialised per session id:
// concurrent guesses on one game never lose an update or reuse a sequence
// number, and state-machine errors leave the stored session untouched.
type GameStore interface {
	CreateGame(ctx context.Context, id string, target models.Album) (models.GameSession, error)
	GetGame(ctx context.Context, id string) (models.GameSession, error)
	IsActive(ctx context.Context, id string) (bool, error)
	ApplyGuessAtomic(ctx context.Context, id string, guess models.Album) (models.GuessOutcome, error)
	// ExpireOlderThan force-completes unfinished sessions created before
	// cutoff and returns how many changed.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	CountActive(ctx context.Context) (int, error)
	Close() error
}

// Snapshotter is implemented by stores that live in process memory and need
// the file manager to survive restarts.
type Snapshotter interface {
	Snapshot() *models.Storage
	Restore(snapshot *models.Storage)
}

// Archive receives sessions a bounded store evicts and hands them back when
// they are asked for again.
type Archive interface {
	Has(id string) bool
	Evict(session models.GameSession)
	Restore(id string) (models.GameSession, bool)
}
