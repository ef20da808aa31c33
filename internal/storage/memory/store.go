// Package memory is the in-process GameStore. Sessions live in a map guarded
// by a RWMutex; each entry carries its own mutex so guesses on different games
// never contend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/game"
	"musicwordle/internal/models"
	"musicwordle/internal/storage"
)

type entry struct {
	mu      sync.Mutex
	session models.GameSession
	// evicted is set under mu once the entry has left the map.
	evicted bool
}

type Store struct {
	mu              sync.RWMutex
	sessions        map[string]*entry
	machine         *game.StateMachine
	maxSessions     int
	evictionPercent int
	archive         storage.Archive
}

// NewStore creates an empty store. maxSessions < 0 disables the cap; when the
// cap is hit, the oldest completed sessions are evicted first.
func NewStore(machine *game.StateMachine, maxSessions, evictionPercent int) *Store {
	if evictionPercent <= 0 {
		evictionPercent = 10
	}
	return &Store{
		sessions:        make(map[string]*entry),
		machine:         machine,
		maxSessions:     maxSessions,
		evictionPercent: evictionPercent,
	}
}

// SetArchive sends evicted sessions to a instead of dropping them.
func (s *Store) SetArchive(a storage.Archive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archive = a
}

func (s *Store) CreateGame(ctx context.Context, id string, target models.Album) (models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return models.GameSession{}, err
	}
	session := s.machine.Create(id, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return models.GameSession{}, storage.ErrAlreadyExists
	}
	if s.archive != nil && s.archive.Has(id) {
		return models.GameSession{}, storage.ErrAlreadyExists
	}
	s.evictIfNeeded()
	s.sessions[id] = &entry{session: session}
	return session.Clone(), nil
}

// lookup falls back to the archive and moves an archived session back into
// the map.
func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	archive := s.archive
	s.mu.RUnlock()
	if ok || archive == nil || !archive.Has(id) {
		return e, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e, true
	}
	session, ok := s.archive.Restore(id)
	if !ok {
		return nil, false
	}
	s.evictIfNeeded()
	e = &entry{session: session}
	s.sessions[id] = e
	return e, true
}

func (s *Store) GetGame(ctx context.Context, id string) (models.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return models.GameSession{}, err
	}
	e, ok := s.lookup(id)
	if !ok {
		return models.GameSession{}, apperrors.ErrGameNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

func (s *Store) IsActive(ctx context.Context, id string) (bool, error) {
	session, err := s.GetGame(ctx, id)
	if err != nil {
		return false, err
	}
	return session.IsActive(), nil
}

// ApplyGuessAtomic runs the state machine on a copy under the entry lock and
// commits the copy only on success.
func (s *Store) ApplyGuessAtomic(ctx context.Context, id string, guess models.Album) (models.GuessOutcome, error) {
	if err := ctx.Err(); err != nil {
		return models.GuessOutcome{}, err
	}
	for {
		e, ok := s.lookup(id)
		if !ok {
			return models.GuessOutcome{}, apperrors.ErrGameNotFound
		}
		out, retry, err := s.applyGuess(e, guess)
		if !retry {
			return out, err
		}
	}
}

// applyGuess reports retry when e was evicted before its lock was taken.
func (s *Store) applyGuess(e *entry, guess models.Album) (models.GuessOutcome, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return models.GuessOutcome{}, true, nil
	}

	next := e.session.Clone()
	rec, err := s.machine.ApplyGuess(&next, guess)
	if err != nil {
		return models.GuessOutcome{}, false, err
	}
	e.session = next
	return models.GuessOutcome{Record: rec, Session: next.Clone()}, false, nil
}

func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	expired := 0
	for _, e := range s.entries() {
		e.mu.Lock()
		if s.machine.Expire(&e.session, cutoff) {
			expired++
		}
		e.mu.Unlock()
	}
	return expired, nil
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	active := 0
	for _, e := range s.entries() {
		e.mu.Lock()
		if e.session.IsActive() {
			active++
		}
		e.mu.Unlock()
	}
	return active, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) Close() error {
	return nil
}

// entries copies the entry pointers so per-entry work runs without the map lock.
func (s *Store) entries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e)
	}
	return out
}

// Snapshot returns a deep copy of every session.
func (s *Store) Snapshot() *models.Storage {
	snap := &models.Storage{
		Version: models.SnapshotVersion,
		Games:   make(map[string]*models.GameSession),
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, e := range s.sessions {
		e.mu.Lock()
		c := e.session.Clone()
		e.mu.Unlock()
		snap.Games[id] = &c
	}
	return snap
}

// Restore replaces the store content with the snapshot.
func (s *Store) Restore(snapshot *models.Storage) {
	sessions := make(map[string]*entry)
	if snapshot != nil {
		for id, g := range snapshot.Games {
			if g == nil || id == "" {
				continue
			}
			c := g.Clone()
			c.ID = id
			if c.Guesses == nil {
				c.Guesses = []models.GuessRecord{}
			}
			c.GuessCount = len(c.Guesses)
			sessions[id] = &entry{session: c}
		}
	}
	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
}

// evictIfNeeded must be called under s.mu.Lock().
func (s *Store) evictIfNeeded() {
	if s.maxSessions < 0 || len(s.sessions) < s.maxSessions {
		return
	}
	target := int(float64(s.maxSessions) * float64(s.evictionPercent) / 100.0)
	if target <= 0 {
		target = 1
	}

	type scored struct {
		id        string
		completed bool
		createdAt time.Time
	}
	candidates := make([]scored, 0, len(s.sessions))
	for id, e := range s.sessions {
		e.mu.Lock()
		candidates = append(candidates, scored{id: id, completed: e.session.IsCompleted, createdAt: e.session.CreatedAt})
		e.mu.Unlock()
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].completed != candidates[j].completed {
			return candidates[i].completed
		}
		return candidates[i].createdAt.Before(candidates[j].createdAt)
	})

	for i := 0; i < target && i < len(candidates); i++ {
		id := candidates[i].id
		e := s.sessions[id]
		e.mu.Lock()
		e.evicted = true
		if s.archive != nil {
			s.archive.Evict(e.session.Clone())
		}
		e.mu.Unlock()
		delete(s.sessions, id)
	}
}

var (
	_ storage.GameStore   = (*Store)(nil)
	_ storage.Snapshotter = (*Store)(nil)
)
