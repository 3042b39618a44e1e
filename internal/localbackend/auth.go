package localbackend

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	tokenLength    = 32
	rowIDLength    = 21
	sessionTTL     = time.Hour
	sessionExpires = int(sessionTTL / time.Second)
)

func newRowID() string {
	return gonanoid.Must(rowIDLength)
}

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

type passwordGrant struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         userPayload `json:"user"`
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.authFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		s.authFail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	var exists int
	if err := s.db.QueryRowContext(r.Context(),
		"SELECT COUNT(1) FROM users WHERE email = ?", req.Email).Scan(&exists); err != nil {
		s.serverError(w, err)
		return
	}
	if exists > 0 {
		s.authFail(w, http.StatusUnprocessableEntity, "User already registered")
		return
	}

	displayName := ""
	if v, ok := req.Data["display_name"].(string); ok {
		displayName = v
	}

	user := userPayload{
		ID:           uuid.NewString(),
		Email:        req.Email,
		UserMetadata: map[string]any{"display_name": displayName},
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(r.Context(),
		"INSERT INTO users (id, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, hashPassword(req.Password), displayName, user.CreatedAt); err != nil {
		s.serverError(w, err)
		return
	}

	s.logger.Info().Str("email", user.Email).Msg("user registered")
	s.issueSession(w, r, user)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req passwordGrant
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.authFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch r.URL.Query().Get("grant_type") {
	case "password":
		s.passwordSignIn(w, r, req)
	case "refresh_token":
		s.refreshSession(w, r, req.RefreshToken)
	default:
		s.authFail(w, http.StatusBadRequest, "unsupported grant type")
	}
}

func (s *Server) passwordSignIn(w http.ResponseWriter, r *http.Request, req passwordGrant) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, hash, err := s.lookupUserByEmail(r, email)
	if err == sql.ErrNoRows || (err == nil && hash != hashPassword(req.Password)) {
		s.authFail(w, http.StatusBadRequest, "Invalid login credentials")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.issueSession(w, r, user)
}

func (s *Server) refreshSession(w http.ResponseWriter, r *http.Request, refreshToken string) {
	if refreshToken == "" {
		s.authFail(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	var userID string
	err := s.db.QueryRowContext(r.Context(),
		"SELECT user_id FROM sessions WHERE refresh_token = ? AND revoked = 0", refreshToken).Scan(&userID)
	if err == sql.ErrNoRows {
		s.authFail(w, http.StatusBadRequest, "Invalid refresh token")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	if _, err := s.db.ExecContext(r.Context(),
		"UPDATE sessions SET revoked = 1 WHERE refresh_token = ?", refreshToken); err != nil {
		s.serverError(w, err)
		return
	}

	user, err := s.lookupUserByID(r, userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.issueSession(w, r, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if _, err := s.db.ExecContext(r.Context(),
			"UPDATE sessions SET revoked = 1 WHERE access_token = ?", token); err != nil {
			s.serverError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionUser(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// sessionUser resolves the bearer token to its user, writing the auth failure
// itself when the token is missing, revoked, or expired.
func (s *Server) sessionUser(w http.ResponseWriter, r *http.Request) (userPayload, bool) {
	token := bearerToken(r)
	if token == "" {
		s.authFail(w, http.StatusUnauthorized, "missing access token")
		return userPayload{}, false
	}

	var userID string
	var expiresAt time.Time
	err := s.db.QueryRowContext(r.Context(),
		"SELECT user_id, expires_at FROM sessions WHERE access_token = ? AND revoked = 0", token).
		Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows || (err == nil && time.Now().After(expiresAt)) {
		s.authFail(w, http.StatusUnauthorized, "invalid or expired token")
		return userPayload{}, false
	}
	if err != nil {
		s.serverError(w, err)
		return userPayload{}, false
	}

	user, err := s.lookupUserByID(r, userID)
	if err != nil {
		s.serverError(w, err)
		return userPayload{}, false
	}
	return user, true
}

func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user userPayload) {
	accessToken, err := gonanoid.New(tokenLength)
	if err != nil {
		s.serverError(w, err)
		return
	}
	refreshToken, err := gonanoid.New(tokenLength)
	if err != nil {
		s.serverError(w, err)
		return
	}

	expiresAt := time.Now().Add(sessionTTL).UTC()
	if _, err := s.db.ExecContext(r.Context(),
		"INSERT INTO sessions (access_token, refresh_token, user_id, expires_at) VALUES (?, ?, ?, ?)",
		accessToken, refreshToken, user.ID, expiresAt); err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sessionPayload{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    sessionExpires,
		User:         user,
	})
}

func (s *Server) lookupUserByEmail(r *http.Request, email string) (userPayload, string, error) {
	var user userPayload
	var displayName, hash string
	err := s.db.QueryRowContext(r.Context(),
		"SELECT id, email, password_hash, display_name, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &hash, &displayName, &user.CreatedAt)
	if err != nil {
		return userPayload{}, "", err
	}
	user.UserMetadata = map[string]any{"display_name": displayName}
	return user, hash, nil
}

func (s *Server) lookupUserByID(r *http.Request, id string) (userPayload, error) {
	var user userPayload
	var displayName string
	err := s.db.QueryRowContext(r.Context(),
		"SELECT id, email, display_name, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Email, &displayName, &user.CreatedAt)
	if err != nil {
		return userPayload{}, err
	}
	user.UserMetadata = map[string]any{"display_name": displayName}
	return user, nil
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) authFail(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error_description": message})
}
