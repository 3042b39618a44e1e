// Package server is the JSON API over the data-access layer. Handlers bind
// input, call the repositories and services, and serialize. No business
// logic lives here.
package server

import (
	"errors"
	"net/http"

	"smashtrack/internal/config"
	"smashtrack/internal/domain"
	"smashtrack/internal/middleware"
	"smashtrack/internal/repository"
	"smashtrack/internal/service"
	"smashtrack/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg     *config.Config
	manager *session.Manager
	codec   *session.Codec
	matches *repository.MatchRepository
	levels  *repository.LevelRepository
	stats   *service.StatsService
	logger  zerolog.Logger
}

type Deps struct {
	Config  *config.Config
	Manager *session.Manager
	Codec   *session.Codec
	Matches *repository.MatchRepository
	Levels  *repository.LevelRepository
	Stats   *service.StatsService
	Logger  zerolog.Logger
}

func New(deps Deps) *Server {
	return &Server{
		cfg:     deps.Config,
		manager: deps.Manager,
		codec:   deps.Codec,
		matches: deps.Matches,
		levels:  deps.Levels,
		stats:   deps.Stats,
		logger:  deps.Logger,
	}
}

// Engine builds the router. Auth endpoints are public; everything else sits
// behind the session middleware.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", s.SignUp)
		auth.POST("/signin", s.SignIn)
		auth.GET("/session", s.RestoreSession)
	}

	secured := api.Group("", middleware.Auth(s.cfg, s.manager, s.codec, s.logger))
	{
		secured.POST("/auth/signout", s.SignOut)

		secured.GET("/matches", s.ListMatches)
		secured.POST("/matches/singles", s.AddSinglesMatch)
		secured.POST("/matches/doubles", s.AddDoublesMatch)
		secured.PATCH("/matches/:id", s.UpdateMatchField)
		secured.DELETE("/matches/:id", s.DeleteMatch)
		secured.POST("/matches/delete", s.DeleteMatches)
		secured.GET("/opponents", s.ListOpponents)

		secured.GET("/level", s.CurrentLevel)
		secured.POST("/level", s.RecordLevelChange)
		secured.GET("/level/history", s.LevelHistory)

		secured.GET("/stats/overview", s.StatsOverview)
		secured.GET("/stats/monthly", s.StatsMonthly)
		secured.GET("/stats/scoring", s.StatsScoring)
		secured.GET("/stats/head-to-head", s.StatsHeadToHead)
		secured.GET("/stats/level-progression", s.StatsLevelProgression)
	}

	return engine
}

// respondError maps the error taxonomy onto HTTP statuses: validation 400,
// auth 401, backend persistence 502, anything else 500.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		authErr        *domain.AuthError
		persistenceErr *domain.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
	case errors.As(err, &persistenceErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": persistenceErr.Message})
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
