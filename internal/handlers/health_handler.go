package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger reports bus cache reachability
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports database and cache reachability. The database is
// required; an unreachable cache only degrades the response.
func HealthCheck(db Pinger, cache CachePinger, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		body := gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["cache"] = "unhealthy"
			} else {
				body["cache"] = "healthy"
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
