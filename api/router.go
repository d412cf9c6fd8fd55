// Package api wires the HTTP surface: routes, middleware, and metrics.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Eliedson1979/amazon-scraper/api/handler"
	"github.com/Eliedson1979/amazon-scraper/api/middleware"
	"github.com/Eliedson1979/amazon-scraper/config"
	"github.com/Eliedson1979/amazon-scraper/extractor"
	"github.com/Eliedson1979/amazon-scraper/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain: Recovery → Logger → CORS.
//
// Debug mode enables the diagnostics block in scrape responses and error
// details in error bodies; release mode never leaks internals.
func NewRouter(f *scraper.Fetcher, ex *extractor.Extractor, m *scraper.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	includeDiagnostics := cfg.Server.Mode == "debug"

	r.GET("/", handler.Info(startTime))
	r.GET("/healthz", handler.Health(startTime))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	apiGroup := r.Group("/api")
	apiGroup.GET("/scrape", handler.Scrape(f, ex, m, includeDiagnostics))

	r.NoRoute(handler.NotFound())

	return r
}
