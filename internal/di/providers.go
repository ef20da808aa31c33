package di

import (
	"context"
	"fmt"
	"time"

	"musicwordle/internal/catalog"
	"musicwordle/internal/game"
	"musicwordle/internal/housekeeping"
	"musicwordle/internal/housekeeping/interfaces"
	"musicwordle/internal/providers"
	"musicwordle/internal/storage"
	"musicwordle/internal/storage/memory"
	"musicwordle/internal/storage/mongo"
	"musicwordle/internal/storage/sqlite"
	"musicwordle/internal/structures"
)

const mongoConnectTimeout = 10 * time.Second

func provideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func provideStateMachine(conf *structures.Config) *game.StateMachine {
	return game.NewStateMachine(conf.Game.MaxGuesses)
}

// provideArchive returns nil unless the memory driver has an archive
// directory configured.
func provideArchive(conf *structures.Config, logger providers.Logger) (*housekeeping.Archive, func(), error) {
	if conf.Storage.Driver != "memory" || conf.Storage.ArchiveDir == "" {
		return nil, func() {}, nil
	}
	compressor, err := housekeeping.NewZstdCompressor(conf)
	if err != nil {
		return nil, nil, err
	}
	archive := housekeeping.NewArchive(conf.Storage.ArchiveDir, conf.Storage.ArchiveTTL, compressor, logger)
	return archive, archive.Close, nil
}

func provideGameStore(conf *structures.Config, machine *game.StateMachine, archive *housekeeping.Archive, logger providers.Logger) (storage.GameStore, func(), error) {
	var (
		store storage.GameStore
		err   error
	)
	switch conf.Storage.Driver {
	case "sqlite":
		store, err = sqlite.Open(conf.Storage.SQLitePath, machine)
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
		defer cancel()
		store, err = mongo.Open(ctx, conf.Storage.MongoURI, conf.Storage.MongoDatabase, machine)
	case "memory":
		mem := memory.NewStore(machine, conf.Storage.MaxSessions, conf.Storage.EvictionPercent)
		if archive != nil {
			mem.SetArchive(archive)
		}
		store = mem
	default:
		err = fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", conf.Storage.Driver, err)
	}
	logger.Infof(providers.TypeApp, "Game store: %s", conf.Storage.Driver)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Errorf(providers.TypeApp, "Error while closing game store: %s", err)
		}
	}
	return store, cleanup, nil
}

func provideActiveGamesCounter(store storage.GameStore) providers.ActiveGamesCounter {
	return store
}

// provideFileManager returns nil for stores that persist on their own.
func provideFileManager(compressor interfaces.CompressorInterface, store storage.GameStore, logger providers.Logger) (*housekeeping.FileManager, func()) {
	snapshotter, ok := store.(storage.Snapshotter)
	if !ok {
		compressor.Close()
		return nil, func() {}
	}
	fm := housekeeping.NewFileManager(compressor, snapshotter, logger)
	return fm, fm.Close
}

// provideLiveSource returns a nil source when no Spotify credentials are
// configured, which leaves the fallback pool in charge.
func provideLiveSource(conf *structures.Config, cache providers.CacheProviderInterface, logger providers.Logger) catalog.LiveSource {
	if !conf.Spotify.Enabled() {
		logger.Warnf(providers.TypeApp, "Spotify credentials not set, serving albums from the fallback pool")
		return nil
	}
	client := catalog.NewSpotifyClient(conf.Spotify)
	if conf.Cache.Enabled {
		return catalog.NewCachedSource(client, cache)
	}
	return client
}

func provideAlbumProvider(live catalog.LiveSource, logger providers.Logger, metrics providers.MetricsProviderInterface) catalog.AlbumProvider {
	return catalog.NewResilientProvider(live, catalog.NewFallbackPool(), logger, metrics)
}
