package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"musicwordle/internal/apperrors"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {
	m.Closed = true
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                sync.Mutex
	Requests          int
	CacheHits         map[string]int
	CacheMisses       map[string]int
	Persists          int
	GamesCreated      int
	Guesses           map[string]int
	ProviderFallbacks map[string]int
	ExpiredGames      int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		CacheHits:         make(map[string]int),
		CacheMisses:       make(map[string]int),
		Guesses:           make(map[string]int),
		ProviderFallbacks: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits[kind]++
}
func (m *MockMetrics) IncCacheMisses(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses[kind]++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}
func (m *MockMetrics) IncGamesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GamesCreated++
}
func (m *MockMetrics) IncGuesses(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Guesses[outcome]++
}
func (m *MockMetrics) IncProviderFallbacks(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProviderFallbacks[operation]++
}
func (m *MockMetrics) AddExpiredGames(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExpiredGames += n
}

// MockAlbumProvider implements catalog.AlbumProvider over a fixed list.
// Random picks return Random, search matches names by substring.
type MockAlbumProvider struct {
	mu          sync.Mutex
	Random      models.Album
	Albums      []models.Album
	RandomHints []string
	Searches    []string
}

func (m *MockAlbumProvider) FetchRandomAlbum(_ context.Context, genreHint string) models.Album {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RandomHints = append(m.RandomHints, genreHint)
	return m.Random.Clone()
}

func (m *MockAlbumProvider) SearchAlbums(_ context.Context, query string, limit int) []models.Album {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	out := []models.Album{}
	q := strings.ToLower(query)
	for _, a := range m.Albums {
		if strings.Contains(strings.ToLower(a.Name), q) {
			out = append(out, a.Clone())
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (m *MockAlbumProvider) FetchAlbumDetails(_ context.Context, id string) (models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Albums {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return models.Album{}, apperrors.ErrAlbumNotFound
}
