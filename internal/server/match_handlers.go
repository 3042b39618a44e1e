package server

import (
	"net/http"

	"smashtrack/internal/domain"
	"smashtrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListMatches(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	matches, err := s.matches.List(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) AddSinglesMatch(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	var in domain.SinglesMatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := s.matches.AddSingles(c.Request.Context(), sess.UserID, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (s *Server) AddDoublesMatch(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	var in domain.DoublesMatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := s.matches.AddDoubles(c.Request.Context(), sess.UserID, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

type fieldPatch struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

func (s *Server) UpdateMatchField(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	var patch fieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.matches.UpdateField(c.Request.Context(), c.Param("id"), sess.UserID, patch.Field, patch.Value); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteMatch(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	if err := s.matches.Delete(c.Request.Context(), c.Param("id"), sess.UserID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkDelete struct {
	IDs []string `json:"ids" binding:"required"`
}

// DeleteMatches serves the match log's select-and-delete flow. Each delete
// is scoped to the caller, so foreign ids silently do nothing.
func (s *Server) DeleteMatches(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	var in bulkDelete
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, id := range in.IDs {
		if err := s.matches.Delete(c.Request.Context(), id, sess.UserID); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": len(in.IDs)})
}

func (s *Server) ListOpponents(c *gin.Context) {
	sess := middleware.SessionFrom(c)

	opponents, err := s.matches.DistinctOpponents(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opponents": opponents})
}
