package housekeeping

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicwordle/internal/models"
	"musicwordle/internal/services"
	"musicwordle/internal/storage/memory"
	"musicwordle/internal/storage/storagetest"
	"musicwordle/internal/structures"
	"musicwordle/internal/testutil"
)

func testConfig(filePath string) *structures.Config {
	return &structures.Config{
		Game: structures.GameConfig{
			MaxGuesses:    models.DefaultMaxGuesses,
			RetentionTTL:  24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Storage: structures.StorageConfig{
			Driver:       "memory",
			FilePath:     filePath,
			SaveInterval: time.Hour,
		},
	}
}

type schedulerFixture struct {
	scheduler *Scheduler
	store     *memory.Store
	metrics   *testutil.MockMetrics
	logger    *testutil.MockLogger
}

// newSchedulerFixture runs the service clock at serviceNow so sweeps see the
// store's games as old or fresh.
func newSchedulerFixture(t *testing.T, conf *structures.Config, comp *testutil.MockCompressor, serviceNow time.Time) *schedulerFixture {
	t.Helper()
	store := memory.NewStore(storagetest.Machine(), -1, 10)
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	machine := storagetest.Machine().WithClock(func() time.Time { return serviceNow })
	svc := services.NewGameService(conf, store, &testutil.MockAlbumProvider{Random: storagetest.Target()}, machine, logger, metrics)
	fm := NewFileManager(comp, store, logger)
	s := NewScheduler(conf, logger, svc, fm, nil, metrics).(*Scheduler)
	return &schedulerFixture{scheduler: s, store: store, metrics: metrics, logger: logger}
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.dat")
	conf := testConfig(path)

	f := newSchedulerFixture(t, conf, &testutil.MockCompressor{}, storagetest.Now)
	_, err := f.store.CreateGame(context.Background(), "g1", storagetest.Target())
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Persist())
	assert.Equal(t, 1, f.metrics.Persists)

	restored := newSchedulerFixture(t, conf, &testutil.MockCompressor{}, storagetest.Now)
	require.NoError(t, restored.scheduler.Restore())
	assert.Equal(t, 1, restored.store.Len())
}

func TestScheduler_Restore_FileNotExist(t *testing.T) {
	f := newSchedulerFixture(t, testConfig("/nonexistent/file.dat"), &testutil.MockCompressor{}, storagetest.Now)
	assert.NoError(t, f.scheduler.Restore())
}

func TestScheduler_Restore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	f := newSchedulerFixture(t, testConfig(path), &testutil.MockCompressor{}, storagetest.Now)
	assert.Error(t, f.scheduler.Restore())
}

func TestScheduler_Persist_WriteError(t *testing.T) {
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("compress error") },
	}
	f := newSchedulerFixture(t, testConfig(filepath.Join(t.TempDir(), "x.dat")), comp, storagetest.Now)

	assert.Error(t, f.scheduler.Persist())
	assert.Equal(t, 1, f.logger.Count("error"))
	assert.Equal(t, 0, f.metrics.Persists)
}

func TestScheduler_PersistWithoutFileIsNoop(t *testing.T) {
	f := newSchedulerFixture(t, testConfig(""), &testutil.MockCompressor{}, storagetest.Now)

	assert.NoError(t, f.scheduler.Persist())
	assert.NoError(t, f.scheduler.Restore())
	assert.Equal(t, 0, f.metrics.Persists)
}

func TestScheduler_PersistFlushesArchive(t *testing.T) {
	dir := t.TempDir()
	logger := &testutil.MockLogger{}
	archive := NewArchive(dir, 0, &testutil.MockCompressor{}, logger)
	archive.Evict(session("g1", storagetest.Now))

	conf := testConfig("")
	s := NewScheduler(conf, logger, nil, nil, archive, testutil.NewMockMetrics())
	require.NoError(t, s.Persist())

	files, err := filepath.Glob(filepath.Join(dir, "*"+archiveSuffix))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	reopened := NewArchive(dir, 0, &testutil.MockCompressor{}, logger)
	s = NewScheduler(conf, logger, nil, nil, reopened, testutil.NewMockMetrics())
	require.NoError(t, s.Restore())
	assert.True(t, reopened.Has("g1"))
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	f := newSchedulerFixture(t, testConfig(""), &testutil.MockCompressor{}, storagetest.Now)
	f.scheduler.Stop()
}

func TestScheduler_SweepExpiresStaleGames(t *testing.T) {
	conf := testConfig("")
	conf.Game.SweepInterval = 10 * time.Millisecond

	f := newSchedulerFixture(t, conf, &testutil.MockCompressor{}, storagetest.Now.Add(48*time.Hour))
	_, err := f.store.CreateGame(context.Background(), "stale", storagetest.Target())
	require.NoError(t, err)

	f.scheduler.Init()
	defer f.scheduler.Stop()

	require.Eventually(t, func() bool {
		g, err := f.store.GetGame(context.Background(), "stale")
		return err == nil && g.IsCompleted && !g.IsWon
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_InitAndStop(t *testing.T) {
	conf := testConfig(filepath.Join(t.TempDir(), "lifecycle.dat"))
	conf.Storage.SaveInterval = 10 * time.Millisecond

	f := newSchedulerFixture(t, conf, &testutil.MockCompressor{}, storagetest.Now)
	f.scheduler.Init()
	require.Eventually(t, func() bool {
		_, err := os.Stat(conf.Storage.FilePath)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	f.scheduler.Stop()
	f.scheduler.Stop()
}
