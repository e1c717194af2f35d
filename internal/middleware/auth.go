package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"storybook-backend/internal/apierr"
	"storybook-backend/internal/config"
	"storybook-backend/internal/models"
)

const UserIDKey = "user_id"

// TokenVerifier resolves an access token to its user remotely.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthMiddleware verifies the bearer token and stores the user id under UserIDKey.
// Tokens are checked locally with the Supabase JWT secret when one is configured,
// otherwise through the remote verifier.
func AuthMiddleware(cfg *config.Config, remote TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "empty token")
			return
		}

		// Some clients URL-encode the token
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		var (
			userID uuid.UUID
			err    error
		)
		switch {
		case cfg.SupabaseJWTSecret != "":
			userID, err = verifyLocal(tokenString, cfg.SupabaseJWTSecret)
		case remote != nil:
			userID, err = remote.VerifyToken(c.Request.Context(), tokenString)
		default:
			unauthorized(c, "token verification is not configured")
			return
		}
		if err != nil {
			unauthorized(c, tokenErrorMessage(err))
			return
		}

		c.Set(UserIDKey, userID.String())
		c.Next()
	}
}

func verifyLocal(tokenString, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, jwt.ErrTokenInvalidSubject
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, jwt.ErrTokenInvalidSubject
	}
	return userID, nil
}

func tokenErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "signature is invalid"):
		return "token signature is invalid"
	case strings.Contains(msg, "token is expired"):
		return "token has expired"
	case strings.Contains(msg, "token has invalid subject"):
		return "missing user id in token"
	default:
		return "invalid token"
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   string(apierr.KindUnauthenticated),
		Message: message,
	})
}
