package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/pipeline"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/stats"
)

// APIResponse is the standard response envelope
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is the REST API server
type Server struct {
	engine      *gin.Engine
	pipeline    *pipeline.Pipeline
	modelRouter *router.Router
	recorder    stats.Recorder
	defaults    models.GenerateOptions
	corsOrigin  string
}

// NewServer creates a new API server
func NewServer(p *pipeline.Pipeline, r *router.Router, recorder stats.Recorder, defaults models.GenerateOptions, corsOrigin string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:      gin.New(),
		pipeline:    p,
		modelRouter: r,
		recorder:    recorder,
		defaults:    defaults,
		corsOrigin:  corsOrigin,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.corsMiddleware())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthCheck)

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/forms/generate", s.generateForm)
		v1.GET("/models", s.listModels)
		v1.GET("/routes", s.listRoutes)
		v1.GET("/stats/models", s.modelStats)
	}
}

// Run starts the HTTP server on the given address
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.corsOrigin != "" {
			c.Header("Access-Control-Allow-Origin", s.corsOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now(),
		},
	})
}
