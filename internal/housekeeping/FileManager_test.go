package housekeeping

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicwordle/internal/models"
	"musicwordle/internal/storage/memory"
	"musicwordle/internal/storage/storagetest"
	"musicwordle/internal/testutil"
)

func newStoreWithGames(t *testing.T, ids ...string) *memory.Store {
	t.Helper()
	s := memory.NewStore(storagetest.Machine(), -1, 10)
	for _, id := range ids {
		_, err := s.CreateGame(context.Background(), id, storagetest.Target())
		require.NoError(t, err)
	}
	return s
}

func TestFileManager_SaveToFile_AtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "games.dat")
	fm := NewFileManager(&testutil.MockCompressor{}, newStoreWithGames(t, "g1"), &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	store := newStoreWithGames(t)
	fm := NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{})

	assert.NoError(t, fm.LoadFromFile("/nonexistent/path/games.dat"))
	assert.Equal(t, 0, store.Len())
}

func TestFileManager_Roundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "games.dat")
	comp := newCompressor(t)

	src := newStoreWithGames(t, "g1", "g2")
	_, err := src.ApplyGuessAtomic(ctx, "g1", storagetest.Wrong())
	require.NoError(t, err)
	_, err = src.ApplyGuessAtomic(ctx, "g2", storagetest.Target())
	require.NoError(t, err)
	require.NoError(t, NewFileManager(comp, src, &testutil.MockLogger{}).SaveToFile(path))

	dst := newStoreWithGames(t)
	require.NoError(t, NewFileManager(comp, dst, &testutil.MockLogger{}).LoadFromFile(path))

	assert.Equal(t, 2, dst.Len())
	g1, err := dst.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, g1.GuessCount)
	assert.False(t, g1.IsCompleted)
	assert.True(t, g1.CreatedAt.Equal(storagetest.Now))

	g2, err := dst.GetGame(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, g2.IsWon)

	out, err := dst.ApplyGuessAtomic(ctx, "g1", storagetest.Target())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Record.SequenceNumber)
}

func TestFileManager_LoadFromFile_UnversionedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	raw := `{"games":{"old":{"id":"old","max_guesses":6,"target":{"name":"Abbey Road"},"guesses":[]}}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	store := newStoreWithGames(t)
	logger := &testutil.MockLogger{}
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, store, logger).LoadFromFile(path))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileManager_LoadFromFile_FutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	data, err := json.Marshal(models.Storage{Version: models.SnapshotVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	store := newStoreWithGames(t, "keep")
	err = NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{}).LoadFromFile(path)
	assert.Error(t, err)
	assert.Equal(t, 1, store.Len(), "a rejected snapshot leaves the store alone")
}

func TestFileManager_LoadFromFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	fm := NewFileManager(&testutil.MockCompressor{}, newStoreWithGames(t), &testutil.MockLogger{})
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_CompressorErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	comp := &testutil.MockCompressor{
		CompressFn:   func([]byte) ([]byte, error) { return nil, errors.New("compress error") },
		DecompressFn: func([]byte) ([]byte, error) { return nil, errors.New("decompress error") },
	}
	fm := NewFileManager(comp, newStoreWithGames(t, "g1"), &testutil.MockLogger{})

	assert.Error(t, fm.SaveToFile(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_Close(t *testing.T) {
	comp := &testutil.MockCompressor{}
	NewFileManager(comp, newStoreWithGames(t), &testutil.MockLogger{}).Close()
	assert.True(t, comp.Closed)
}

func TestFileManager_SaveToFile_KeepsPreviousAsBackup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "games.dat")
	store := newStoreWithGames(t, "g1")
	fm := NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path))
	assert.NoFileExists(t, path+backupSuffix, "first save has nothing to back up")

	_, err := store.ApplyGuessAtomic(ctx, "g1", storagetest.Wrong())
	require.NoError(t, err)
	require.NoError(t, fm.SaveToFile(path))

	var current, previous models.Storage
	readJSON(t, path, &current)
	readJSON(t, path+backupSuffix, &previous)
	assert.Equal(t, 1, current.Games["g1"].GuessCount)
	assert.Equal(t, 0, previous.Games["g1"].GuessCount)
}

func TestFileManager_SaveToFile_SkipsUnchangedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	compressions := 0
	comp := &testutil.MockCompressor{CompressFn: func(b []byte) ([]byte, error) {
		compressions++
		return b, nil
	}}
	fm := NewFileManager(comp, newStoreWithGames(t, "g1"), &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path))
	require.NoError(t, fm.SaveToFile(path))
	assert.Equal(t, 1, compressions)

	require.NoError(t, os.Remove(path))
	require.NoError(t, fm.SaveToFile(path))
	assert.Equal(t, 2, compressions, "a deleted snapshot is rewritten")
	assert.FileExists(t, path)
}

func TestFileManager_LoadFromFile_FallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	data, err := json.Marshal(newStoreWithGames(t, "g1", "g2").Snapshot())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path+backupSuffix, data, 0644))
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0644))

	store := newStoreWithGames(t)
	logger := &testutil.MockLogger{}
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, store, logger).LoadFromFile(path))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileManager_LoadFromFile_MissingMainUsesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	data, err := json.Marshal(newStoreWithGames(t, "g1").Snapshot())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path+backupSuffix, data, 0644))

	store := newStoreWithGames(t)
	require.NoError(t, NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{}).LoadFromFile(path))
	assert.Equal(t, 1, store.Len())
}

func TestFileManager_LoadFromFile_BothUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.dat")
	require.NoError(t, os.WriteFile(path, []byte("{bad"), 0644))
	require.NoError(t, os.WriteFile(path+backupSuffix, []byte("{worse"), 0644))

	err := NewFileManager(&testutil.MockCompressor{}, newStoreWithGames(t), &testutil.MockLogger{}).LoadFromFile(path)
	assert.ErrorContains(t, err, "decode snapshot")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
