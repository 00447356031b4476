package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/training"
)

// GET /api/templates
func (s *Server) listTemplates(c *gin.Context) {
	list, err := s.templates.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

// GET /api/templates/:id
func (s *Server) getTemplate(c *gin.Context) {
	tpl, err := s.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// POST /api/templates
func (s *Server) createTemplate(c *gin.Context) {
	var tpl entity.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		s.writeError(c, badRequest("invalid template: "+err.Error()))
		return
	}
	tpl.ID = ""
	saved, err := s.templates.Save(c.Request.Context(), &tpl)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// PUT /api/templates/:id
func (s *Server) updateTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.templates.Get(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	var tpl entity.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		s.writeError(c, badRequest("invalid template: "+err.Error()))
		return
	}
	tpl.ID = id
	saved, err := s.templates.Save(ctx, &tpl)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DELETE /api/templates/:id
func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/templates/:id/instructions
// Body: {"instructions": {"<field key>": "<text>"}}. Replaces the trained instructions.
func (s *Server) setInstructions(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Instructions map[string]string `json:"instructions"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	if err := s.templates.SetInstructions(ctx, c.Param("id"), body.Instructions); err != nil {
		s.writeError(c, err)
		return
	}
	tpl, err := s.templates.Get(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// GET /api/templates/:id/prompts
func (s *Server) listPromptVersions(c *gin.Context) {
	versions, err := s.templates.ListPromptVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// POST /api/templates/:id/training
// Body: {"samples": [...]}. Scores the template against reviewed samples.
func (s *Server) trainingResults(c *gin.Context) {
	var body struct {
		Samples []training.Sample `json:"samples"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	tpl, err := s.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, training.CalculateResults(body.Samples, tpl))
}

type activeTemplateResponse struct {
	TemplateID string           `json:"template_id"`
	Template   *entity.Template `json:"template"`
}

// GET /api/active-template
func (s *Server) getActiveTemplate(c *gin.Context) {
	tpl, err := s.resolveTemplate(c.Request.Context(), "")
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activeTemplateResponse{TemplateID: tpl.ID, Template: tpl})
}

// PUT /api/active-template
func (s *Server) setActiveTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		TemplateID string `json:"template_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.TemplateID == "" {
		s.writeError(c, badRequest("template_id is required"))
		return
	}
	if err := s.templates.SetActiveID(ctx, body.TemplateID); err != nil {
		s.writeError(c, err)
		return
	}
	tpl, err := s.templates.Get(ctx, body.TemplateID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, activeTemplateResponse{TemplateID: tpl.ID, Template: tpl})
}
