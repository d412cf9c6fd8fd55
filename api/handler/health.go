package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eliedson1979/amazon-scraper/models"
)

// Version is the service version reported by the info and health endpoints.
const Version = "1.0.0"

// endpointIndex describes the public routes, shown on the root payload and
// on 404 responses.
var endpointIndex = map[string]string{
	"GET /":                        "service info",
	"GET /healthz":                 "health check",
	"GET /metrics":                 "Prometheus metrics",
	"GET /api/scrape?keyword=term": "scrape search results for a keyword",
}

// Info returns a handler for GET /.
func Info(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.InfoResponse{
			Service:   "amazon-scraper",
			Version:   Version,
			Status:    "ok",
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Endpoints: endpointIndex,
		})
	}
}

// Health returns a handler for GET /healthz.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"uptime": time.Since(startTime).Round(time.Second).String(),
		})
	}
}

// NotFound returns the handler for unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":   false,
			"error":     "endpoint not found",
			"endpoints": endpointIndex,
		})
	}
}
