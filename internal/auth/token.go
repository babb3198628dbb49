// Package auth provides the token and password primitives used by the auth
// service: HS256 access tokens, opaque refresh tokens stored as SHA-256
// hashes, and bcrypt password hashing. Nothing here touches the database.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when an access token fails to parse, is
// expired, or was signed with a different key or method.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload: the user ID travels in the standard
// subject claim, the role in a private one.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies tokens. Zero value is not usable; construct
// with the secret and TTLs from config.
type Manager struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewAccessToken signs an HS256 JWT for the user.
func (m *Manager) NewAccessToken(userID, role string, now time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.AccessTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.Secret)
}

// ParseAccessToken verifies signature, method and expiry and returns the
// claims, or ErrInvalidToken.
func (m *Manager) ParseAccessToken(raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// NewRefreshToken generates an opaque refresh token and the hash under which
// it is persisted. Only the hash ever reaches the database.
func (m *Manager) NewRefreshToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, HashRefreshToken(token), nil
}

// HashRefreshToken maps an opaque refresh token to its storage key.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
