package housekeeping

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"musicwordle/internal/housekeeping/interfaces"
	"musicwordle/internal/models"
	"musicwordle/internal/providers"
	"musicwordle/internal/storage"
)

const (
	archiveSuffix    = ".games.zst"
	archiveBucketFmt = "2006-01-02"
)

// ArchivedGame is one session evicted from the memory store.
type ArchivedGame struct {
	Session    models.GameSession `json:"session"`
	ArchivedAt time.Time          `json:"archived_at"`
}

// archiveFile is the on-disk layout of one bucket: every archived game
// created on the same UTC day.
type archiveFile struct {
	Games map[string]*ArchivedGame `json:"games"`
}

// Archive keeps evicted sessions on disk so they can be brought back when a
// player returns. Evict only buffers; Flush is the single place that writes.
type Archive struct {
	mu         sync.RWMutex
	dir        string
	index      map[string]string                   // game id -> bucket
	pending    map[string]map[string]*ArchivedGame // bucket -> id -> game
	restored   map[string]map[string]struct{}      // bucket -> ids to drop on flush
	loaded     map[string]*archiveFile
	ttl        time.Duration
	now        func() time.Time
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

// NewArchive creates an archive rooted at dir. Entries older than ttl are
// dropped on flush; ttl <= 0 keeps them forever.
func NewArchive(dir string, ttl time.Duration, compressor interfaces.CompressorInterface, logger providers.Logger) *Archive {
	return &Archive{
		dir:        dir,
		index:      make(map[string]string),
		pending:    make(map[string]map[string]*ArchivedGame),
		restored:   make(map[string]map[string]struct{}),
		loaded:     make(map[string]*archiveFile),
		ttl:        ttl,
		now:        time.Now,
		compressor: compressor,
		logger:     logger,
	}
}

func (a *Archive) Has(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.index[id]
	return ok
}

func (a *Archive) Evict(session models.GameSession) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket := session.CreatedAt.UTC().Format(archiveBucketFmt)
	if a.pending[bucket] == nil {
		a.pending[bucket] = make(map[string]*ArchivedGame)
	}
	a.pending[bucket][session.ID] = &ArchivedGame{Session: session, ArchivedAt: a.now()}
	a.index[session.ID] = bucket
}

// Restore removes the session from the archive and returns it.
func (a *Archive) Restore(id string) (models.GameSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket, ok := a.index[id]
	if !ok {
		return models.GameSession{}, false
	}
	delete(a.index, id)

	if games, ok := a.pending[bucket]; ok {
		if g, ok := games[id]; ok {
			delete(games, id)
			if len(games) == 0 {
				delete(a.pending, bucket)
			}
			return g.Session, true
		}
	}

	file := a.getOrLoad(bucket)
	if file == nil {
		return models.GameSession{}, false
	}
	g, ok := file.Games[id]
	if !ok {
		return models.GameSession{}, false
	}
	if a.restored[bucket] == nil {
		a.restored[bucket] = make(map[string]struct{})
	}
	a.restored[bucket][id] = struct{}{}
	return g.Session.Clone(), true
}

// Flush merges pending evictions into their bucket files, applies restores
// and drops entries past the ttl. Pending state is cleared only after the
// bucket was written.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	buckets := make(map[string]struct{})
	for b := range a.pending {
		buckets[b] = struct{}{}
	}
	for b := range a.restored {
		buckets[b] = struct{}{}
	}
	if a.ttl > 0 {
		for b := range a.loaded {
			buckets[b] = struct{}{}
		}
	}

	for bucket := range buckets {
		file := a.getOrLoad(bucket)
		if file == nil {
			file = &archiveFile{Games: make(map[string]*ArchivedGame)}
		}

		for id := range a.restored[bucket] {
			delete(file.Games, id)
		}
		for id, g := range a.pending[bucket] {
			file.Games[id] = g
		}
		if a.ttl > 0 {
			now := a.now()
			for id, g := range file.Games {
				if now.Sub(g.ArchivedAt) > a.ttl {
					delete(file.Games, id)
					if a.index[id] == bucket {
						delete(a.index, id)
					}
				}
			}
		}

		if len(file.Games) > 0 {
			if err := a.write(bucket, file); err != nil {
				return err
			}
			a.loaded[bucket] = file
		} else {
			os.Remove(a.path(bucket))
			delete(a.loaded, bucket)
		}

		delete(a.pending, bucket)
		delete(a.restored, bucket)
	}
	return nil
}

// RestoreIndex rebuilds the id index from the bucket files. It runs once at
// startup; file contents are not kept in memory.
func (a *Archive) RestoreIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(a.dir, "*"+archiveSuffix))
	if err != nil {
		return err
	}
	for _, f := range files {
		bucket := strings.TrimSuffix(filepath.Base(f), archiveSuffix)
		file := a.load(bucket)
		if file == nil {
			continue
		}
		for id := range file.Games {
			a.index[id] = bucket
		}
	}
	return nil
}

// Len is the number of archived games, pending ones included.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.index)
}

func (a *Archive) Close() {
	a.compressor.Close()
}

// getOrLoad must be called under a.mu.Lock().
func (a *Archive) getOrLoad(bucket string) *archiveFile {
	if f, ok := a.loaded[bucket]; ok {
		return f
	}
	f := a.load(bucket)
	if f != nil {
		a.loaded[bucket] = f
	}
	return f
}

func (a *Archive) load(bucket string) *archiveFile {
	path := a.path(bucket)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Errorf(providers.TypeApp, "Failed to read archive %s: %s", path, err)
		}
		return nil
	}
	decompressed, err := a.compressor.Decompress(data)
	if err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to decompress archive %s: %s", path, err)
		return nil
	}
	var f archiveFile
	if err := json.Unmarshal(decompressed, &f); err != nil {
		a.logger.Errorf(providers.TypeApp, "Failed to parse archive %s: %s", path, err)
		return nil
	}
	if f.Games == nil {
		f.Games = make(map[string]*ArchivedGame)
	}
	return &f
}

func (a *Archive) write(bucket string, f *archiveFile) error {
	jsonData, err := json.Marshal(f)
	if err != nil {
		return err
	}
	compressed, err := a.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return writeAtomic(a.path(bucket), compressed)
}

func (a *Archive) path(bucket string) string {
	return filepath.Join(a.dir, bucket+archiveSuffix)
}

var _ storage.Archive = (*Archive)(nil)
