package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rhivo/premium-api/internal/token"
)

const errUnauthorized = "Authorization required"

// SessionVerifier is satisfied by *token.Signer.
type SessionVerifier interface {
	Verify(raw string) (*token.SessionClaims, error)
}

// Auth validates a Bearer session token and sets "userID" and "email" in the
// gin context. It rejects before any handler logic runs.
func Auth(sessions SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		claims, err := sessions.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
