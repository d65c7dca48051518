package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token")
	errNoSecret     = errors.New("signing secret not configured")
)

// parseBearer validates the Authorization header and returns its claims.
func parseBearer(c *gin.Context, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return nil, errMissingToken
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errTokenFormat
	}

	if secret == "" {
		return nil, errNoSecret
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errTokenFormat
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errTokenFormat
	}
	return claims, nil
}

func userIDFromClaims(claims jwt.MapClaims) (primitive.ObjectID, bool) {
	value, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c, secret)
		if errors.Is(err, errMissingToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role, _ := claims["role"].(string)
		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		if userID, ok := userIDFromClaims(claims); ok {
			c.Set("userId", userID)
		}
		c.Set("claims", claims)
		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, "admin")
}
