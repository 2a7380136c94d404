// Package auth holds the credential primitives behind the built-in
// authentication provider: HS256 session tokens, bcrypt password hashing,
// and a broker that fans session-change events out to subscribers.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired, or wrongly signed
// tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload of a session token. Version must match the
// account's session_version for the token to be honored, so bumping the
// version revokes every outstanding token.
type Claims struct {
	UserID  string `json:"uid"`
	Version int    `json:"sv"`
	jwt.RegisteredClaims
}

// Signer issues and verifies session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSigner returns a Signer. ttl <= 0 defaults to 24h.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "go-forum-backend",
		now:    time.Now,
	}
}

// TTL reports how long issued tokens stay valid.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign creates a token for userID at the given session version.
func (s *Signer) Sign(userID string, version int) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  userID,
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates raw and returns its claims.
func (s *Signer) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
