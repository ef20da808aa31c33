package housekeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"

	"musicwordle/internal/housekeeping/interfaces"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
	"musicwordle/internal/storage"
)

// backupSuffix names the copy of the previous snapshot kept next to the
// current one.
const backupSuffix = ".bak"

// FileManager writes snapshots of an in-memory store to a single compressed
// file and loads them back on startup. The previous snapshot is kept as a
// backup and is loaded when the current file cannot be read.
type FileManager struct {
	store      storage.Snapshotter
	compressor interfaces.CompressorInterface
	logger     providers.Logger

	mu         sync.Mutex
	lastDigest uint64
	lastPath   string
}

func NewFileManager(compressor interfaces.CompressorInterface, store storage.Snapshotter, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// SaveToFile writes the store to fileName. A snapshot identical to the last
// one written to the same path is skipped.
func (f *FileManager) SaveToFile(fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.store.Snapshot()
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	digest := xxhash.Sum64(raw)
	if f.lastPath == fileName && f.lastDigest == digest && fileExists(fileName) {
		f.logger.Debugf(providers.TypeApp, "Snapshot unchanged, %d games", len(snapshot.Games))
		return nil
	}

	data, err := f.compressor.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	f.keepBackup(fileName)
	if err := writeAtomic(fileName, data); err != nil {
		return err
	}
	f.lastPath, f.lastDigest = fileName, digest
	f.logger.Debugf(providers.TypeApp, "Snapshot of %d games written to %s", len(snapshot.Games), fileName)
	return nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the store from fileName, or from its backup when
// fileName is unreadable. With neither present the store starts empty.
func (f *FileManager) LoadFromFile(fileName string) error {
	snapshot, err := f.read(fileName)
	if err != nil || snapshot == nil {
		backup, backupErr := f.read(fileName + backupSuffix)
		switch {
		case backup != nil && err != nil:
			f.logger.Warnf(providers.TypeApp, "Snapshot %s unreadable (%s), using backup", fileName, err)
		case backup != nil:
			f.logger.Warnf(providers.TypeApp, "Snapshot %s missing, using backup", fileName)
		case err != nil:
			return err
		default:
			return backupErr
		}
		snapshot = backup
	}

	f.store.Restore(snapshot)
	f.logger.Infof(providers.TypeApp, "Restored %d games from %s", len(snapshot.Games), fileName)
	return nil
}

// read decodes one snapshot file. A missing file yields nil and no error.
func (f *FileManager) read(path string) (*models.Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	raw, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snapshot models.Storage
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version > models.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", snapshot.Version, models.SnapshotVersion)
	}
	if snapshot.Version == 0 {
		f.logger.Warnf(providers.TypeApp, "Snapshot %s carries no version, loading as version %d", path, models.SnapshotVersion)
	}
	return &snapshot, nil
}

// keepBackup hard-links the current snapshot to the backup name before it is
// replaced. Failures only cost the backup.
func (f *FileManager) keepBackup(fileName string) {
	if !fileExists(fileName) {
		return
	}
	backup := fileName + backupSuffix
	_ = os.Remove(backup)
	if err := os.Link(fileName, backup); err != nil {
		f.logger.Debugf(providers.TypeApp, "Snapshot backup skipped: %s", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}
