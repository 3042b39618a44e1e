package server

import (
	"net/http"
	"strconv"

	"smashtrack/internal/domain"
	"smashtrack/internal/middleware"
	"smashtrack/internal/service"

	"github.com/gin-gonic/gin"
)

// statsFilter reads the shared query parameters: days=30, from=YYYY-MM-DD,
// to=YYYY-MM-DD, type=singles|doubles.
func statsFilter(c *gin.Context) (service.MatchFilter, error) {
	var f service.MatchFilter

	if days := c.Query("days"); days != "" {
		parsed, err := strconv.Atoi(days)
		if err != nil || parsed < 0 {
			return f, domain.NewValidationError("days must be a non-negative integer")
		}
		f.Days = parsed
	}
	if from := c.Query("from"); from != "" {
		parsed, err := domain.ParseDate(from)
		if err != nil {
			return f, domain.NewValidationError("from must be a YYYY-MM-DD date")
		}
		f.From = parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := domain.ParseDate(to)
		if err != nil {
			return f, domain.NewValidationError("to must be a YYYY-MM-DD date")
		}
		f.To = parsed
	}
	switch matchType := c.Query("type"); matchType {
	case "", domain.MatchTypeSingles, domain.MatchTypeDoubles:
		f.MatchType = matchType
	default:
		return f, domain.NewValidationError("type must be singles or doubles")
	}

	return f, nil
}

func (s *Server) StatsOverview(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	f, err := statsFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	overview, err := s.stats.Overview(c.Request.Context(), sess.UserID, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) StatsMonthly(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	f, err := statsFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	months, err := s.stats.Monthly(c.Request.Context(), sess.UserID, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}

func (s *Server) StatsScoring(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	f, err := statsFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	averages, err := s.stats.Scoring(c.Request.Context(), sess.UserID, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"averages": averages})
}

func (s *Server) StatsHeadToHead(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	f, err := statsFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	report, err := s.stats.HeadToHead(c.Request.Context(), sess.UserID, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) StatsLevelProgression(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	progression, err := s.stats.LevelProgression(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progression)
}
