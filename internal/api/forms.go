package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
)

// GenerateResponse wraps a generated schema with its run identity
type GenerateResponse struct {
	Schema   *models.FormSchema `json:"schema"`
	RunID    string             `json:"run_id"`
	Warnings []string           `json:"warnings,omitempty"`
}

// generateForm handles POST /api/v1/forms/generate
func (s *Server) generateForm(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	result, err := s.pipeline.Generate(c.Request.Context(), &req, s.defaults)
	if err != nil {
		// Provider and model detail stays in the logs. Clients get one
		// stable message regardless of which stage failed.
		logger.Error("Form generation failed: %v", err)
		s.errorResponse(c, http.StatusBadGateway, "failed to generate form")
		return
	}

	s.successResponse(c, GenerateResponse{
		Schema:   result.Schema,
		RunID:    result.Run.ID,
		Warnings: result.Run.Warnings,
	})
}

// listModels handles GET /api/v1/models
func (s *Server) listModels(c *gin.Context) {
	s.successResponse(c, s.modelRouter.Models())
}

// listRoutes handles GET /api/v1/routes
func (s *Server) listRoutes(c *gin.Context) {
	s.successResponse(c, s.modelRouter.Routes())
}

// modelStats handles GET /api/v1/stats/models
func (s *Server) modelStats(c *gin.Context) {
	stats, err := s.recorder.ModelStats(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to read model stats: "+err.Error())
		return
	}
	s.successResponse(c, stats)
}
