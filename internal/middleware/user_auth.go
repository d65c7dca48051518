package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserAuth validates user JWT tokens and injects the userId into the context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		if errors.Is(err, errMissingToken) {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, ok := userIDFromClaims(claims)
		if !ok {
			log.Println("[AUTH] [ERROR] userId claim missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// OptionalUser sets userId when a valid token is present and lets guests
// through. A token that is present but invalid is still rejected.
func OptionalUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		if errors.Is(err, errMissingToken) {
			c.Next()
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] optional token rejected:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if userID, ok := userIDFromClaims(claims); ok {
			c.Set("userId", userID)
		}
		c.Next()
	}
}
