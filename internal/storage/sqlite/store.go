// Package sqlite provides a SQLite-backed GameStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/storage"
	"musicwordle/internal/storage/sqlite/migrations"
)

// maxApplyAttempts bounds the optimistic retry loop of ApplyGuessAtomic.
const maxApplyAttempts = 8

var errConflict = errors.New("concurrent guess on the same game")

// Store persists game sessions in SQLite. Sessions live in games, their
// guesses in game_guesses keyed by (game_id, sequence_number).
type Store struct {
	sqlDB   *sql.DB
	machine *game.StateMachine
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite game store and applies embedded migrations.
func Open(path string, machine *game.StateMachine) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if machine == nil {
		return nil, fmt.Errorf("state machine is required")
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps transactions serialised inside the process.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyPragmas(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, machine: machine}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) CreateGame(ctx context.Context, id string, target models.Album) (models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return models.GameSession{}, err
	}
	session := s.machine.Create(id, target)
	targetJSON, err := json.Marshal(session.Target)
	if err != nil {
		return models.GameSession{}, fmt.Errorf("encode target: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO games (id, created_at, is_completed, is_won, guess_count, max_guesses, target)
		 VALUES (?, ?, 0, 0, 0, ?, ?)`,
		session.ID,
		toMillis(session.CreatedAt),
		session.MaxGuesses,
		string(targetJSON),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.GameSession{}, storage.ErrAlreadyExists
		}
		return models.GameSession{}, fmt.Errorf("create game: %w", err)
	}
	return session, nil
}

func (s *Store) GetGame(ctx context.Context, id string) (models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return models.GameSession{}, err
	}
	return loadSession(ctx, s.sqlDB, id)
}

func (s *Store) IsActive(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var completed bool
	err := s.sqlDB.QueryRowContext(ctx, `SELECT is_completed FROM games WHERE id = ?`, id).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperrors.ErrGameNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get game state: %w", err)
	}
	return !completed, nil
}

// ApplyGuessAtomic loads the session inside a transaction, runs the state
// machine and commits only if the row still carries the guess count it was
// read with. A lost race is retried with fresh state.
func (s *Store) ApplyGuessAtomic(ctx context.Context, id string, guess models.Album) (models.GuessOutcome, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.GuessOutcome{}, err
		}
		out, err := s.tryApplyGuess(ctx, id, guess)
		if errors.Is(err, errConflict) {
			continue
		}
		return out, err
	}
	return models.GuessOutcome{}, apperrors.Wrap(apperrors.CodeInternal, "apply guess", errConflict)
}

func (s *Store) tryApplyGuess(ctx context.Context, id string, guess models.Album) (models.GuessOutcome, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("begin guess transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	session, err := loadSession(ctx, tx, id)
	if err != nil {
		return models.GuessOutcome{}, err
	}
	readCount := session.GuessCount

	rec, err := s.machine.ApplyGuess(&session, guess)
	if err != nil {
		return models.GuessOutcome{}, err
	}

	guessJSON, err := json.Marshal(rec.Guess)
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("encode guess: %w", err)
	}
	comparisonJSON, err := json.Marshal(rec.Comparison)
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("encode comparison: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE games
		    SET guess_count = ?, is_completed = ?, is_won = ?, max_guesses = ?
		  WHERE id = ? AND guess_count = ? AND is_completed = 0`,
		session.GuessCount, session.IsCompleted, session.IsWon, session.MaxGuesses,
		id, readCount,
	)
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("update game: %w", err)
	}
	if n == 0 {
		return models.GuessOutcome{}, errConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_guesses (game_id, sequence_number, guess, comparison, is_correct, guessed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, rec.SequenceNumber, string(guessJSON), string(comparisonJSON), rec.IsCorrect, toMillis(rec.GuessedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return models.GuessOutcome{}, errConflict
		}
		return models.GuessOutcome{}, fmt.Errorf("insert guess: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.GuessOutcome{}, fmt.Errorf("commit guess: %w", err)
	}
	return models.GuessOutcome{Record: rec, Session: session}, nil
}

func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE games SET is_completed = 1, is_won = 0 WHERE is_completed = 0 AND created_at < ?`,
		toMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("expire games: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire games: %w", err)
	}
	return int(n), nil
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE is_completed = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active games: %w", err)
	}
	return n, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSession(ctx context.Context, q querier, id string) (models.GameSession, error) {
	var (
		session    models.GameSession
		createdAt  int64
		targetJSON string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, created_at, is_completed, is_won, guess_count, max_guesses, target
		   FROM games WHERE id = ?`, id,
	).Scan(
		&session.ID,
		&createdAt,
		&session.IsCompleted,
		&session.IsWon,
		&session.GuessCount,
		&session.MaxGuesses,
		&targetJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GameSession{}, apperrors.ErrGameNotFound
	}
	if err != nil {
		return models.GameSession{}, fmt.Errorf("get game: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(targetJSON), &session.Target); err != nil {
		return models.GameSession{}, fmt.Errorf("decode target: %w", err)
	}

	guesses, err := loadGuesses(ctx, q, id)
	if err != nil {
		return models.GameSession{}, err
	}
	session.Guesses = guesses
	session.GuessCount = len(guesses)
	return session, nil
}

func loadGuesses(ctx context.Context, q querier, id string) ([]models.GuessRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT sequence_number, guess, comparison, is_correct, guessed_at
		   FROM game_guesses WHERE game_id = ? ORDER BY sequence_number`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	defer rows.Close()

	guesses := []models.GuessRecord{}
	for rows.Next() {
		var (
			rec            models.GuessRecord
			guessJSON      string
			comparisonJSON string
			guessedAt      int64
		)
		if err := rows.Scan(&rec.SequenceNumber, &guessJSON, &comparisonJSON, &rec.IsCorrect, &guessedAt); err != nil {
			return nil, fmt.Errorf("scan guess: %w", err)
		}
		if err := json.Unmarshal([]byte(guessJSON), &rec.Guess); err != nil {
			return nil, fmt.Errorf("decode guess: %w", err)
		}
		if err := json.Unmarshal([]byte(comparisonJSON), &rec.Comparison); err != nil {
			return nil, fmt.Errorf("decode comparison: %w", err)
		}
		rec.GuessedAt = fromMillis(guessedAt)
		guesses = append(guesses, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guesses: %w", err)
	}
	return guesses, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.GameStore = (*Store)(nil)
