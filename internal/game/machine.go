package game

import (
	"time"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
)

// StateMachine owns the lifecycle of a single session:
// ACTIVE -> COMPLETED{won} | COMPLETED{lost}. It holds no sessions itself;
// stores call it inside their per-session critical section.
type StateMachine struct {
	maxGuesses int
	compare    Comparator
	now        func() time.Time
}

func NewStateMachine(maxGuesses int) *StateMachine {
	if maxGuesses <= 0 {
		maxGuesses = models.DefaultMaxGuesses
	}
	return &StateMachine{
		maxGuesses: maxGuesses,
		compare:    Compare,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests and deterministic replays.
func (m *StateMachine) WithClock(now func() time.Time) *StateMachine {
	c := *m
	c.now = now
	return &c
}

// WithComparator replaces the scoring function.
func (m *StateMachine) WithComparator(compare Comparator) *StateMachine {
	c := *m
	c.compare = compare
	return &c
}

func (m *StateMachine) MaxGuesses() int {
	return m.maxGuesses
}

func (m *StateMachine) Now() time.Time {
	return m.now().UTC()
}

func (m *StateMachine) Create(id string, target models.Album) models.GameSession {
	return models.GameSession{
		ID:         id,
		CreatedAt:  m.Now(),
		MaxGuesses: m.maxGuesses,
		Target:     target.Clone(),
		Guesses:    []models.GuessRecord{},
	}
}

// ApplyGuess scores guess against the session target, appends the record and
// moves the session to its next state. On error the session is untouched.
// Resubmitting an identical guess is not deduplicated.
func (m *StateMachine) ApplyGuess(s *models.GameSession, guess models.Album) (models.GuessRecord, error) {
	if s.IsCompleted {
		return models.GuessRecord{}, apperrors.ErrGameAlreadyCompleted
	}
	limit := s.MaxGuesses
	if limit <= 0 {
		limit = m.maxGuesses
	}
	if len(s.Guesses) >= limit {
		return models.GuessRecord{}, apperrors.ErrMaxGuessesReached
	}

	res := m.compare(guess, s.Target)
	rec := models.GuessRecord{
		Guess:          guess.Clone(),
		Comparison:     res.Comparison,
		IsCorrect:      res.IsCorrect,
		SequenceNumber: len(s.Guesses) + 1,
		GuessedAt:      m.Now(),
	}

	s.Guesses = append(s.Guesses, rec)
	s.GuessCount = len(s.Guesses)
	s.MaxGuesses = limit

	switch {
	case rec.IsCorrect:
		s.IsCompleted = true
		s.IsWon = true
	case len(s.Guesses) >= limit:
		s.IsCompleted = true
		s.IsWon = false
	}
	return rec, nil
}

// Expire force-completes a stale, unfinished session as lost. Guesses are
// left as they are. It reports whether the session changed.
func (m *StateMachine) Expire(s *models.GameSession, cutoff time.Time) bool {
	if s.IsCompleted || !s.CreatedAt.Before(cutoff) {
		return false
	}
	s.IsCompleted = true
	s.IsWon = false
	return true
}
