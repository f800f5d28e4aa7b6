package service

import (
	"time"

	"swiftaza/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs HS256 access tokens. The claim names are the ones
// middleware.JWTClaims decodes.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

func (t *TokenIssuer) Issue(u *model.User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":     u.ID.String(),
		"user_id": u.ID.String(),
		"email":   u.Email,
		"kind":    string(u.Kind),
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}
