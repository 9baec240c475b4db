//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"workdiary/internal"
	"workdiary/internal/controllers"
	"workdiary/internal/fetcher"
	"workdiary/internal/maintenance"
	"workdiary/internal/providers"
	"workdiary/internal/services"
	"workdiary/internal/storage"
	"workdiary/internal/store"
	"workdiary/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		provideLogger,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		provideStore,
		wire.Bind(new(store.Store), new(*store.SQLiteStore)),
		storage.NewImageStore,
		wire.Bind(new(storage.ImageStoreInterface), new(*storage.ImageStore)),
		fetcher.NewRemoteFetcher,
		wire.Bind(new(fetcher.FetcherInterface), new(*fetcher.RemoteFetcher)),

		services.NewWorkDiaryService,
		wire.Bind(new(services.WorkDiaryServiceInterface), new(*services.WorkDiaryService)),
		wire.Bind(new(controllers.EntryCounter), new(*services.WorkDiaryService)),

		maintenance.NewScheduler,
		controllers.NewWorkDiaryController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
