// Package mongo provides a MongoDB-backed GameStore. Each session is one
// document; guesses are pushed onto it with a conditional update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/storage"
)

const (
	collectionName   = "games"
	maxApplyAttempts = 8
)

var errConflict = errors.New("concurrent guess on the same game")

type Store struct {
	client  *mongo.Client
	games   *mongo.Collection
	machine *game.StateMachine
}

// Open connects to uri, pings the deployment and ensures the sweep index.
func Open(ctx context.Context, uri, database string, machine *game.StateMachine) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if machine == nil {
		return nil, fmt.Errorf("state machine is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	games := client.Database(database).Collection(collectionName)
	_, err = games.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "is_completed", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create games index: %w", err)
	}
	return &Store{client: client, games: games, machine: machine}, nil
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateGame(ctx context.Context, id string, target models.Album) (models.GameSession, error) {
	session := s.machine.Create(id, target)
	if _, err := s.games.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.GameSession{}, storage.ErrAlreadyExists
		}
		return models.GameSession{}, fmt.Errorf("create game: %w", err)
	}
	return session, nil
}

func (s *Store) GetGame(ctx context.Context, id string) (models.GameSession, error) {
	var session models.GameSession
	err := s.games.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.GameSession{}, apperrors.ErrGameNotFound
	}
	if err != nil {
		return models.GameSession{}, fmt.Errorf("get game: %w", err)
	}
	normalizeSession(&session)
	return session, nil
}

func (s *Store) IsActive(ctx context.Context, id string) (bool, error) {
	session, err := s.GetGame(ctx, id)
	if err != nil {
		return false, err
	}
	return session.IsActive(), nil
}

// ApplyGuessAtomic runs the state machine on the loaded document and pushes
// the record only if the document still has the guess count it was read with.
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
	session, err := s.GetGame(ctx, id)
	if err != nil {
		return models.GuessOutcome{}, err
	}
	readCount := session.GuessCount

	rec, err := s.machine.ApplyGuess(&session, guess)
	if err != nil {
		return models.GuessOutcome{}, err
	}

	res, err := s.games.UpdateOne(ctx, guessFilter(id, readCount), guessUpdate(rec, session))
	if err != nil {
		return models.GuessOutcome{}, fmt.Errorf("update game: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.GuessOutcome{}, errConflict
	}
	return models.GuessOutcome{Record: rec, Session: session}, nil
}

func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.games.UpdateMany(ctx, expireFilter(cutoff), expireUpdate())
	if err != nil {
		return 0, fmt.Errorf("expire games: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	n, err := s.games.CountDocuments(ctx, bson.M{"is_completed": false})
	if err != nil {
		return 0, fmt.Errorf("count active games: %w", err)
	}
	return int(n), nil
}

func guessFilter(id string, readCount int) bson.M {
	return bson.M{
		"_id":          id,
		"guess_count":  readCount,
		"is_completed": false,
	}
}

func guessUpdate(rec models.GuessRecord, after models.GameSession) bson.M {
	return bson.M{
		"$push": bson.M{"guesses": rec},
		"$set": bson.M{
			"guess_count":  after.GuessCount,
			"is_completed": after.IsCompleted,
			"is_won":       after.IsWon,
			"max_guesses":  after.MaxGuesses,
		},
	}
}

func expireFilter(cutoff time.Time) bson.M {
	return bson.M{
		"is_completed": false,
		"created_at":   bson.M{"$lt": cutoff.UTC()},
	}
}

func expireUpdate() bson.M {
	return bson.M{"$set": bson.M{"is_completed": true, "is_won": false}}
}

// normalizeSession restores invariants the document format cannot express:
// UTC timestamps, a non-nil guess list and a matching count.
func normalizeSession(s *models.GameSession) {
	s.CreatedAt = s.CreatedAt.UTC()
	if s.Guesses == nil {
		s.Guesses = []models.GuessRecord{}
	}
	for i := range s.Guesses {
		s.Guesses[i].GuessedAt = s.Guesses[i].GuessedAt.UTC()
	}
	s.GuessCount = len(s.Guesses)
}

var _ storage.GameStore = (*Store)(nil)
