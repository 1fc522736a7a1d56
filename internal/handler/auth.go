package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const userIDContextKey = "storybook.user_id"

// userClaims - user_id приоритетнее sub.
type userClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier проверяет HS256 bearer токены пользователей.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify возвращает userID из токена или models.ErrUnauthorized.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &userClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: token has no subject", models.ErrUnauthorized)
	}
	return userID, nil
}

// Middleware кладёт userID в контекст gin или отвечает 401.
func (v *TokenVerifier) Middleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			logger.Warn("Missing or malformed Authorization header", zap.String("path", c.Request.URL.Path))
			writeError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Unauthorized: missing bearer token")
			return
		}
		userID, err := v.Verify(token)
		if err != nil {
			snippet := token
			if len(snippet) > 10 {
				snippet = snippet[:10] + "..."
			}
			logger.Warn("Token verification failed", zap.Error(err), zap.String("token_snippet", snippet))
			writeError(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Unauthorized: invalid token")
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func authenticatedUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
