package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyTokenValid(t *testing.T) {
	accessToken := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "u1",
		"email": "a@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	sess := VerifyToken(testSecret, accessToken)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "a@example.com", sess.Email)
	assert.Equal(t, accessToken, sess.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)
}

func TestVerifyTokenNoSecretConfigured(t *testing.T) {
	accessToken := signToken(t, testSecret, jwt.MapClaims{"sub": "u1"})
	assert.Nil(t, VerifyToken("", accessToken))
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	accessToken := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Nil(t, VerifyToken(testSecret, accessToken))
}

func TestVerifyTokenExpired(t *testing.T) {
	accessToken := signToken(t, testSecret, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	assert.Nil(t, VerifyToken(testSecret, accessToken))
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	accessToken := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Nil(t, VerifyToken(testSecret, accessToken))
}

func TestVerifyTokenGarbage(t *testing.T) {
	assert.Nil(t, VerifyToken(testSecret, "not.a.jwt"))
}
