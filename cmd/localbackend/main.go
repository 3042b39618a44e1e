package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"smashtrack/internal/config"
	"smashtrack/internal/constants"
	"smashtrack/internal/localbackend"
	"smashtrack/internal/logger"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(logger.New),
		fx.Provide(config.LoadLocalBackend),
		fx.Provide(openStore),
		fx.Provide(newServer),
		fx.Invoke(runServer),
	).Run()
}

func openStore(cfg *config.LocalBackend, log zerolog.Logger) (*sql.DB, error) {
	return localbackend.OpenStore(cfg.DBPath, log)
}

func newServer(db *sql.DB, cfg *config.LocalBackend, log zerolog.Logger) *localbackend.Server {
	return localbackend.NewServer(db, cfg.APIKey, log)
}

func runServer(
	lc fx.Lifecycle,
	backendServer *localbackend.Server,
	cfg *config.LocalBackend,
	db *sql.DB,
	log zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: backendServer.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("local backend starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("local backend failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down local backend")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing store")
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("local backend shutdown failed")
				return err
			}
			return nil
		},
	})
}
