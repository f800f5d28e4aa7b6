package middleware

import (
	"context"
	"net/http"
	"strings"

	"swiftaza/internal/apierror"
	"swiftaza/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// ID returns the caller's user id, or uuid.Nil for a malformed claim.
func (c *JWTClaims) ID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid || claims.ID() == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid or expired token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ProfileReader is the cached view of a user's permissions.
type ProfileReader interface {
	Get(ctx context.Context, id string) (*model.ProfileRecord, error)
}

// PermissionChecker answers from the credential store.
type PermissionChecker interface {
	HasAny(ctx context.Context, userID uuid.UUID, codes ...string) (bool, error)
}

// RequirePermission lets the request through when the caller holds any of
// codes. The profile cache answers first; the checker is consulted only
// when the cached record is unavailable.
func RequirePermission(profiles ProfileReader, checker PermissionChecker, codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		rec, err := profiles.Get(c.Request.Context(), claims.UserID)
		if err == nil {
			if !rec.HasAny(codes...) {
				c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permission denied"))
				return
			}
			c.Next()
			return
		}

		ok, err := checker.HasAny(c.Request.Context(), claims.ID(), codes...)
		if err != nil {
			log.Error().Err(err).
				Str("request_id", c.GetString(RequestIDKey)).
				Str("user_id", claims.UserID).
				Msg("permission check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permission denied"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
