package server

import (
	"net/http"

	"smashtrack/internal/domain"
	"smashtrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Server) CurrentLevel(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	level, err := s.levels.CurrentLevel(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	// A user with no ledger rows has no level yet; that is data, not an error.
	c.JSON(http.StatusOK, gin.H{"level": level})
}

type levelChange struct {
	Level         float64     `json:"level" binding:"required"`
	EffectiveDate domain.Date `json:"effective_date"`
	Notes         string      `json:"notes"`
}

func (s *Server) RecordLevelChange(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	var in levelChange
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.levels.RecordChange(c.Request.Context(), sess.UserID, in.Level, in.EffectiveDate, in.Notes); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) LevelHistory(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	history, err := s.levels.History(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
