// Package api exposes the chat service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"raphael-assistant/internal/common/auth"
	"raphael-assistant/internal/common/database"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/pipeline"
)

type Deps struct {
	Service  *pipeline.Service
	Verifier auth.TokenVerifier
	Health   map[string]database.Pinger
	Logger   logger.Logger

	AllowedOrigins []string
	RequestTimeout time.Duration
}

type Server struct {
	service  *pipeline.Service
	verifier auth.TokenVerifier
	health   map[string]database.Pinger
	logger   logger.Logger
	now      func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	s := &Server{
		service:  deps.Service,
		verifier: deps.Verifier,
		health:   deps.Health,
		logger:   deps.Logger.WithFields(map[string]interface{}{"component": "http"}),
		now:      time.Now,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.healthCheck)
	router.GET("/ready", s.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", withTimeout(deps.RequestTimeout), s.authenticate())
	authed.POST("/chat", s.chat)
	authed.GET("/user-data", s.userData)

	return router
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	failed := database.Check(ctx, s.health)
	components := make(map[string]string, len(s.health))
	for name := range s.health {
		components[name] = "ok"
	}
	for name, err := range failed {
		components[name] = err.Error()
	}

	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"components": components})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
