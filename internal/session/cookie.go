package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"smashtrack/internal/domain"
)

// CookieName carries the sealed token pair so a session survives a page
// reload without re-entering credentials.
const CookieName = "st_session"

// Codec seals the token pair into an opaque cookie value with AES-GCM.
// The key comes from SESSION_KEY; a deployment without one simply gets no
// reload persistence.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec returns (nil, nil) for an empty key so cookie persistence stays
// optional. A malformed key is a configuration failure.
func NewCodec(key string) (*Codec, error) {
	if key == "" {
		return nil, nil
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, domain.NewConfigError("SESSION_KEY must be 16, 24 or 32 bytes: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, domain.NewConfigError("failed to build session cipher: %v", err)
	}
	return &Codec{aead: aead}, nil
}

type tokenPair struct {
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt"`
}

func (c *Codec) Seal(accessToken, refreshToken string) (string, error) {
	plain, err := json.Marshal(tokenPair{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode token pair: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Open(value string) (accessToken, refreshToken string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", "", fmt.Errorf("malformed session cookie: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", "", fmt.Errorf("malformed session cookie: too short")
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to open session cookie: %w", err)
	}

	var pair tokenPair
	if err := json.Unmarshal(plain, &pair); err != nil {
		return "", "", fmt.Errorf("failed to decode token pair: %w", err)
	}
	return pair.AccessToken, pair.RefreshToken, nil
}
