package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"smashtrack/internal/domain"

	"github.com/valyala/fasthttp"
)

// Auth is the identity half of the backend: email/password registration and
// login, token validation and revocation. Provider rejections surface as
// *domain.AuthError with the provider's own message.
type Auth interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*AuthUser, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
}

type AuthUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	CreatedAt    time.Time    `json:"created_at"`
}

type UserMetadata struct {
	DisplayName string `json:"display_name"`
}

// AuthSession is the token pair handed out by the provider together with the
// authenticated user.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	User         *AuthUser `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"display_name": displayName},
	}

	var session AuthSession
	if err := c.request(ctx, fasthttp.MethodPost, "/auth/v1/signup", nil, body, "", authError, &session); err != nil {
		return nil, err
	}
	if session.User == nil {
		return nil, &domain.AuthError{Message: "provider returned no user for signup"}
	}
	return &session, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	query := url.Values{}
	query.Set("grant_type", "password")
	body := map[string]string{"email": email, "password": password}

	var session AuthSession
	if err := c.request(ctx, fasthttp.MethodPost, "/auth/v1/token", query, body, "", authError, &session); err != nil {
		return nil, err
	}
	if session.User == nil || session.AccessToken == "" {
		return nil, &domain.AuthError{Message: "provider returned no session for sign-in"}
	}
	return &session, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthSession, error) {
	query := url.Values{}
	query.Set("grant_type", "refresh_token")
	body := map[string]string{"refresh_token": refreshToken}

	var session AuthSession
	if err := c.request(ctx, fasthttp.MethodPost, "/auth/v1/token", query, body, "", authError, &session); err != nil {
		return nil, err
	}
	if session.User == nil || session.AccessToken == "" {
		return nil, &domain.AuthError{Message: "provider returned no session for refresh"}
	}
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx = WithAccessToken(ctx, accessToken)
	return c.request(ctx, fasthttp.MethodPost, "/auth/v1/logout", nil, nil, "", authError, nil)
}

// GetUser validates the access token against the provider and returns the
// identity it belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	ctx = WithAccessToken(ctx, accessToken)

	var user AuthUser
	if err := c.request(ctx, fasthttp.MethodGet, "/auth/v1/user", nil, nil, "", authError, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &domain.AuthError{Message: "provider returned no user for token"}
	}
	return &user, nil
}

type authErrorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func authError(status int, body []byte) error {
	var parsed authErrorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.ErrorDescription
	if message == "" {
		message = parsed.Msg
	}
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = string(body)
	}
	return &domain.AuthError{Status: status, Message: message}
}
