// Package session holds the identity state machine: a session is either
// Anonymous (nil, or zero user id) or Authenticated with a provider-issued
// token pair. Local state is the source of truth for "is this session
// authenticated"; a failed remote sign-out never leaves a session looking
// signed in.
package session

import (
	"context"
	"regexp"
	"strings"
	"time"

	"smashtrack/internal/backend"
	"smashtrack/internal/cache"
	"smashtrack/internal/constants"
	"smashtrack/internal/domain"

	"github.com/rs/zerolog"
)

type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Authenticated reports whether the session left the Anonymous state.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DisplayName     string `json:"display_name"`
}

var displayNameRe = regexp.MustCompile(`^[A-Za-z ]+$`)

// Manager drives sign-in, sign-up, sign-out and restore against the identity
// provider, and keeps the read cache consistent across identity changes.
type Manager struct {
	auth   backend.Auth
	cache  *cache.UserCache
	logger zerolog.Logger
}

func NewManager(auth backend.Auth, userCache *cache.UserCache, logger zerolog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		cache:  userCache,
		logger: logger,
	}
}

// SignIn authenticates with the provider. When the same process previously
// served a different user, that user's cached reads are cleared so a reused
// browser session can never observe the prior login's data.
func (m *Manager) SignIn(ctx context.Context, email, password string, prev *Session) (*Session, error) {
	if email == "" || password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	authSession, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.logger.Warn().Err(err).Str("email", email).Msg("sign-in rejected")
		return nil, err
	}

	s := fromAuthSession(authSession)
	if prev.Authenticated() && prev.UserID != s.UserID {
		m.cache.InvalidateUser(prev.UserID)
	}

	m.logger.Info().Str("user_id", s.UserID).Msg("signed in")
	return s, nil
}

// SignUp registers a new user. Local validation runs first; a remote call is
// only made once the input is well formed.
func (m *Manager) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if in.Email == "" || in.Password == "" || in.PasswordConfirm == "" || in.DisplayName == "" {
		return nil, domain.NewValidationError("all fields are required")
	}
	if in.Password != in.PasswordConfirm {
		return nil, domain.NewValidationError("passwords must match")
	}
	if len(in.Password) < constants.MinPasswordLength {
		return nil, domain.NewValidationError("password must be at least %d characters", constants.MinPasswordLength)
	}
	if !displayNameRe.MatchString(strings.TrimSpace(in.DisplayName)) {
		return nil, domain.NewValidationError("display name must contain only letters and spaces")
	}

	authSession, err := m.auth.SignUp(ctx, in.Email, in.Password, strings.TrimSpace(in.DisplayName))
	if err != nil {
		m.logger.Warn().Err(err).Str("email", in.Email).Msg("sign-up rejected")
		return nil, err
	}

	s := fromAuthSession(authSession)
	m.logger.Info().Str("user_id", s.UserID).Msg("user registered")
	return s, nil
}

// SignOut transitions to Anonymous unconditionally: the user's cached reads
// are dropped before the remote call, and a provider failure is returned for
// logging only. The session is over either way.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	if !s.Authenticated() {
		return nil
	}

	m.cache.InvalidateUser(s.UserID)

	if err := m.auth.SignOut(ctx, s.AccessToken); err != nil {
		m.logger.Warn().Err(err).Str("user_id", s.UserID).Msg("remote sign-out failed, session cleared locally")
		return err
	}

	m.logger.Info().Str("user_id", s.UserID).Msg("signed out")
	return nil
}

// Restore rebuilds the Authenticated state from a persisted token pair by
// validating the access token against the provider. An expired access token
// is refreshed once; any other rejection surfaces as-is.
func (m *Manager) Restore(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	user, err := m.auth.GetUser(ctx, accessToken)
	if err == nil {
		return &Session{
			UserID:       user.ID,
			Email:        user.Email,
			DisplayName:  user.UserMetadata.DisplayName,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		}, nil
	}

	if refreshToken == "" || !domain.IsAuth(err) {
		return nil, err
	}

	authSession, refreshErr := m.auth.Refresh(ctx, refreshToken)
	if refreshErr != nil {
		m.logger.Debug().Err(refreshErr).Msg("token refresh failed")
		return nil, refreshErr
	}

	m.logger.Debug().Str("user_id", authSession.User.ID).Msg("session restored via refresh token")
	return fromAuthSession(authSession), nil
}

func fromAuthSession(as *backend.AuthSession) *Session {
	s := &Session{
		AccessToken:  as.AccessToken,
		RefreshToken: as.RefreshToken,
	}
	if as.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(as.ExpiresIn) * time.Second)
	}
	if as.User != nil {
		s.UserID = as.User.ID
		s.Email = as.User.Email
		s.DisplayName = as.User.UserMetadata.DisplayName
	}
	return s
}
