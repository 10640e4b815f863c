package fx

import (
	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/cache"
	"dynasty-tracker/internal/config"
	"dynasty-tracker/internal/database"
	"dynasty-tracker/internal/logger"
	"dynasty-tracker/internal/repository"
	"dynasty-tracker/internal/server"
	"dynasty-tracker/internal/service"

	"go.uber.org/fx"
)

// ProvideDurableCache binds the sqlite-backed response store to the api
// client's cache port.
func ProvideDurableCache(repo *repository.UpstreamCacheRepository) api.DurableCache {
	return repo
}

// ProvideUpstreamClient binds the concrete api client to the service-layer
// upstream port.
func ProvideUpstreamClient(client *api.SleeperClient) service.UpstreamClient {
	return client
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(cache.New),
	// repos
	fx.Provide(repository.NewUpstreamCacheRepository),
	fx.Provide(repository.NewLeagueChainRepository),
	fx.Provide(repository.NewContractRepository),
	fx.Provide(repository.NewActionRepository),
	fx.Provide(repository.NewLeagueConfigRepository),
	fx.Provide(repository.NewLocalPlayerRepository),
	// api client
	fx.Provide(ProvideDurableCache),
	fx.Provide(api.NewSleeperClient),
	fx.Provide(ProvideUpstreamClient),
	// svc
	fx.Provide(service.NewSleeperService),
	fx.Provide(service.NewCostMapService),
	fx.Provide(service.NewLeagueConfigService),
	fx.Provide(service.NewAllowanceService),
	fx.Provide(service.NewContractService),
	fx.Provide(service.NewRosterService),
	// server
	fx.Provide(server.New),
)
