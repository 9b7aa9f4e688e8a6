//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"gamewarden/internal"
	"gamewarden/internal/backup"
	"gamewarden/internal/console"
	"gamewarden/internal/controllers"
	"gamewarden/internal/notifier"
	"gamewarden/internal/providers"
	"gamewarden/internal/roster"
	"gamewarden/internal/services"
	"gamewarden/internal/storage"
	"gamewarden/internal/structures"
	"gamewarden/internal/watcher"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewStateStore,
		console.NewProfiles,
		console.NewSystemctlChecker,
		console.NewConnectionManager,
		wire.Bind(new(roster.Connections), new(*console.ConnectionManager)),
		wire.Bind(new(backup.Connections), new(*console.ConnectionManager)),
		wire.Bind(new(services.ConnectionStates), new(*console.ConnectionManager)),

		roster.NewTracker,
		notifier.NewDiscordMessenger,
		notifier.NewNotifier,
		backup.NewZstdCompressor,
		backup.NewTarArchiver,
		backup.NewRclone,
		backup.NewSyncer,
		backup.NewService,
		watcher.NewPipeline,
		watcher.NewScheduler,

		services.NewStatusService,
		controllers.NewStatusController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
