package config

import (
	"os"
	"time"

	"smashtrack/internal/constants"
	"smashtrack/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	// Base URL and service key for the hosted backend (rows + identity).
	BackendURL string
	BackendKey string

	// HMAC secret the identity provider signs access tokens with. When set,
	// bearer tokens are verified locally instead of a round trip per request.
	JWTSecret string

	// Key for sealing the session cookie. 16, 24 or 32 bytes after decoding.
	SessionKey string

	ServerPort string
	LogLevel   string
	CacheTTL   time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		BackendURL: getEnv("BACKEND_URL", ""),
		BackendKey: getEnv("BACKEND_KEY", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionKey: getEnv("SESSION_KEY", ""),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		CacheTTL:   constants.ReadCacheTTL,
	}

	if cfg.BackendURL == "" {
		return nil, domain.NewConfigError("BACKEND_URL is required")
	}
	if cfg.BackendKey == "" {
		return nil, domain.NewConfigError("BACKEND_KEY is required")
	}

	logger.Info().
		Str("backend_url", cfg.BackendURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
