package server

import (
	"net/http"

	"smashtrack/internal/middleware"
	"smashtrack/internal/session"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) SignIn(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.manager.SignIn(c.Request.Context(), creds.Email, creds.Password, s.priorSession(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, sess)
}

func (s *Server) SignUp(c *gin.Context) {
	var in session.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.manager.SignUp(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, sess)
	c.JSON(http.StatusCreated, sess)
}

// SignOut always ends the local session; a provider failure is logged and
// the response still reports Anonymous.
func (s *Server) SignOut(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if err := s.manager.SignOut(c.Request.Context(), sess); err != nil {
		s.logger.Warn().Err(err).Msg("remote sign-out failed")
	}

	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// RestoreSession rebuilds an authenticated session from the sealed cookie so
// a page reload does not force a fresh login.
func (s *Server) RestoreSession(c *gin.Context) {
	if s.codec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session persistence is not configured"})
		return
	}

	value, err := c.Cookie(session.CookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	accessToken, refreshToken, err := s.codec.Open(value)
	if err != nil {
		s.clearSessionCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	sess, err := s.manager.Restore(c.Request.Context(), accessToken, refreshToken)
	if err != nil {
		s.clearSessionCookie(c)
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, sess)
}

func (s *Server) setSessionCookie(c *gin.Context, sess *session.Session) {
	if s.codec == nil || !sess.Authenticated() || sess.AccessToken == "" {
		return
	}
	sealed, err := s.codec.Seal(sess.AccessToken, sess.RefreshToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to seal session cookie")
		return
	}
	c.SetCookie(session.CookieName, sealed, 30*24*3600, "/", "", true, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	if s.codec == nil {
		return
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", true, true)
}

// priorSession is the best-effort identity of whoever this browser session
// previously belonged to, so a new sign-in can clear their cached reads.
// Only local verification is used here; an unreadable cookie just means
// there is nothing to clear.
func (s *Server) priorSession(c *gin.Context) *session.Session {
	if s.codec == nil || s.cfg.JWTSecret == "" {
		return nil
	}
	value, err := c.Cookie(session.CookieName)
	if err != nil {
		return nil
	}
	accessToken, _, err := s.codec.Open(value)
	if err != nil {
		return nil
	}
	return middleware.VerifyToken(s.cfg.JWTSecret, accessToken)
}
