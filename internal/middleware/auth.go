package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/auth"
	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthenticatedUser struct {
	ID      uint        `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	OwnerID *uint       `json:"owner_id,omitempty"`
}

const TokenCookie = "token"

type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type UserLoader interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
}

// AuthMiddleware accepts a bearer token or the token cookie, then reloads the
// user so deleted accounts lose access at once.
func AuthMiddleware(tokens TokenVerifier, users UserLoader, log *logrus.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		claims, err := tokens.Verify(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetUser(ctx.Request.Context(), claims.UserID)

		if errors.Is(err, policy.ErrNotFound) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		if err != nil {
			log.WithField("operation", "middleware.AuthMiddleware").WithError(err).Error("failed to load user")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if user.Role != claims.Role {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:      user.ID,
			Name:    user.Name,
			Email:   user.Email,
			Role:    user.Role,
			OwnerID: user.OwnerID,
		})
		ctx.Next()
	}
}

// RequireRole lets the request through only for the listed roles. It must
// run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)
		user, ok := value.(AuthenticatedUser)

		if !exists || !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		for _, r := range roles {
			if user.Role == r {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	}
}

func extractToken(ctx *gin.Context) (string, bool) {
	if header := ctx.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)

		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}

		return strings.TrimSpace(parts[1]), true
	}

	if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}

	return "", false
}
