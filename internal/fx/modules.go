package fx

import (
	"smashtrack/internal/backend"
	"smashtrack/internal/cache"
	"smashtrack/internal/config"
	"smashtrack/internal/logger"
	"smashtrack/internal/repository"
	"smashtrack/internal/server"
	"smashtrack/internal/service"
	"smashtrack/internal/session"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideCache(cfg *config.Config) *cache.UserCache {
	return cache.New(cfg.CacheTTL)
}

func ProvideRows(client *backend.Client) backend.Rows {
	return client
}

func ProvideAuth(client *backend.Client) backend.Auth {
	return client
}

func ProvideCodec(cfg *config.Config) (*session.Codec, error) {
	return session.NewCodec(cfg.SessionKey)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	// backend client
	fx.Provide(backend.NewClient),
	fx.Provide(ProvideRows),
	fx.Provide(ProvideAuth),
	fx.Provide(ProvideCache),
	// repos
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewLevelRepository),
	// session
	fx.Provide(session.NewManager),
	fx.Provide(ProvideCodec),
	// svc
	fx.Provide(service.NewStatsService),
	// server
	fx.Provide(ProvideServer),
)

func ProvideServer(
	cfg *config.Config,
	manager *session.Manager,
	codec *session.Codec,
	matches *repository.MatchRepository,
	levels *repository.LevelRepository,
	stats *service.StatsService,
	log zerolog.Logger,
) *server.Server {
	return server.New(server.Deps{
		Config:  cfg,
		Manager: manager,
		Codec:   codec,
		Matches: matches,
		Levels:  levels,
		Stats:   stats,
		Logger:  log,
	})
}
