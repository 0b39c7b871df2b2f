package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenResolver maps a bearer token to its user. Satisfied by *chat.Store.
type TokenResolver interface {
	UserForToken(ctx context.Context, token string) (*models.User, error)
}

func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token := strings.TrimPrefix(h, "Bearer ")
		user, err := resolver.UserForToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, chat.ErrAccountDisabled) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", user.ID.String())
		c.Set("username", user.Username)
		c.Set("is_superuser", user.IsSuperuser)
		c.Next()
	}
}

// MustUserID returns the authenticated user's id. Only valid behind
// AuthMiddleware.
func MustUserID(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(c.GetString("user_id"))
	return id
}
