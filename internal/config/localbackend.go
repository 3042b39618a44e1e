package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// LocalBackend configures the sqlite-backed stand-in for the hosted backend.
type LocalBackend struct {
	DBPath     string
	ServerPort string
	APIKey     string
}

func LoadLocalBackend(logger zerolog.Logger) *LocalBackend {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &LocalBackend{
		DBPath:     getEnv("LOCAL_BACKEND_DB", "smashtrack.db"),
		ServerPort: getEnv("LOCAL_BACKEND_PORT", "9090"),
		APIKey:     getEnv("BACKEND_KEY", "local-dev-key"),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Msg("local backend configuration loaded")

	return cfg
}
