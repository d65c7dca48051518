package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports whether the database answers a ping.
func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			log.Println("[HEALTH] [ERROR] ping failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, "GET /healthz", "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
