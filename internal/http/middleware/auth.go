package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GeonSoon1/moonshot-myself/internal/token"
)

const userIDKey = "authUserID"

// Auth validates the Authorization header and attaches the caller identity.
type Auth struct {
	Codec *token.Codec
}

// ValidateJWT ensures the request carries a valid bearer access token.
// Refresh tokens are rejected here: they are only good for rotation.
func (m *Auth) ValidateJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return
	}
	userID, kind, err := m.Codec.Verify(parts[1])
	if err != nil || kind != token.KindAccess {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid access token."})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// GetUserID exposes the authenticated user id to handlers.
func GetUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
