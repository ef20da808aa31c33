//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"musicwordle/internal"
	"musicwordle/internal/controllers"
	"musicwordle/internal/housekeeping"
	"musicwordle/internal/providers"
	"musicwordle/internal/services"
	"musicwordle/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		provideLogger,
		provideStateMachine,
		provideArchive,
		provideGameStore,
		provideActiveGamesCounter,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		provideLiveSource,
		provideAlbumProvider,
		services.NewGameService,

		housekeeping.NewZstdCompressor,
		provideFileManager,
		housekeeping.NewScheduler,
		controllers.NewGameController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
