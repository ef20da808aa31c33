package models

import "time"

// DefaultMaxGuesses is the guess budget of every new session.
const DefaultMaxGuesses = 6

type GuessRecord struct {
	Guess          Album      `json:"guess" bson:"guess"`
	Comparison     Comparison `json:"comparison" bson:"comparison"`
	IsCorrect      bool       `json:"is_correct" bson:"is_correct"`
	SequenceNumber int        `json:"sequence_number" bson:"sequence_number"`
	GuessedAt      time.Time  `json:"guessed_at" bson:"guessed_at"`
}

// GameSession is the persisted state of one game. Guesses is append-only and
// GuessCount always equals len(Guesses).
type GameSession struct {
	ID          string        `json:"id" bson:"_id"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	IsCompleted bool          `json:"is_completed" bson:"is_completed"`
	IsWon       bool          `json:"is_won" bson:"is_won"`
	GuessCount  int           `json:"guess_count" bson:"guess_count"`
	MaxGuesses  int           `json:"max_guesses" bson:"max_guesses"`
	Target      Album         `json:"target" bson:"target"`
	Guesses     []GuessRecord `json:"guesses" bson:"guesses"`
}

func (s *GameSession) GuessesRemaining() int {
	remaining := s.MaxGuesses - len(s.Guesses)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsActive reports whether the session still accepts guesses.
func (s *GameSession) IsActive() bool {
	return !s.IsCompleted
}

// Clone returns a deep copy so callers never share the guess slice with a store.
func (s *GameSession) Clone() GameSession {
	c := *s
	c.Target = s.Target.Clone()
	c.Guesses = make([]GuessRecord, len(s.Guesses))
	for i, g := range s.Guesses {
		g.Guess = g.Guess.Clone()
		c.Guesses[i] = g
	}
	return c
}

func (s *GameSession) Status() GameStatus {
	return GameStatus{
		GameID:           s.ID,
		GuessCount:       len(s.Guesses),
		GuessesRemaining: s.GuessesRemaining(),
		IsCompleted:      s.IsCompleted,
		IsWon:            s.IsWon,
		MaxGuesses:       s.MaxGuesses,
	}
}

// GameStatus is the read-only projection served by game-status.
type GameStatus struct {
	GameID           string `json:"game_id"`
	GuessCount       int    `json:"guess_count"`
	GuessesRemaining int    `json:"guesses_remaining"`
	IsCompleted      bool   `json:"is_completed"`
	IsWon            bool   `json:"is_won"`
	MaxGuesses       int    `json:"max_guesses"`
}

// GuessOutcome is what an atomic guess application returns: the appended
// record and the session as it was persisted afterwards.
type GuessOutcome struct {
	Record  GuessRecord
	Session GameSession
}
