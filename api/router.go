// Package api exposes the scraper over HTTP for serve mode.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Maclenn77/ticha/api/handler"
	"github.com/Maclenn77/ticha/api/middleware"
	"github.com/Maclenn77/ticha/cache"
	"github.com/Maclenn77/ticha/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if keys configured) → RateLimit
func NewRouter(cfg *config.Config, cc *cache.Cache, version string, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	// Health sits outside the auth group so probes work without keys.
	r.GET("/health", handler.Health(version, startTime))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Auth.APIKeys))
	v1.Use(middleware.RateLimit(cfg.RateLimit))

	v1.POST("/scrape", handler.Scrape(cfg, cc))
	v1.POST("/document", handler.Document(cfg))

	return r
}
