// Package router wires the HTTP engine for the operator API.
package router

import (
	"net/http"
	"time"

	"zaakbrug_backend/internal/http/middleware"
	"zaakbrug_backend/internal/http/ops"
	"zaakbrug_backend/platform/config"
	"zaakbrug_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the gin engine with the operator routes mounted.
func New(cfg config.HTTPConfig, opsHandler *ops.Handler, log *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestTimer(log))

	if origins := cfg.GetCORSOrigins(); len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Ops-Token"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1/ops")
	v1.Use(middleware.OpsAuth(cfg.GetOpsToken()))
	opsHandler.RegisterRoutes(v1)

	return engine
}
