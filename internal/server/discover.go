package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/internal/discovery"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

type discoverResponse struct {
	*discovery.Result
	// TemplateID is set in edit mode, when fields were merged into an existing template.
	TemplateID string `json:"template_id,omitempty"`
}

// POST /api/discover
// Form: userIntent, files (PDF, repeated), templateId, includeNew.
func (s *Server) discoverFields(c *gin.Context) {
	ctx := c.Request.Context()
	form, ok := s.multipartForm(c)
	if !ok {
		return
	}
	docs, err := readDocuments(form.File["files"])
	if err != nil {
		s.writeError(c, err)
		return
	}
	includeNew, err := formBool(form, "includeNew", false)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var existing *entity.Template
	if id := formValue(form, "templateId"); id != "" {
		if existing, err = s.templates.Get(ctx, id); err != nil {
			s.writeError(c, err)
			return
		}
	}

	res, err := s.discover.Discover(ctx, docs, formValue(form, "userIntent"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := discoverResponse{Result: res}
	if existing != nil {
		res.Fields = discovery.Merge(existing, res.Fields, discovery.MergeOptions{IncludeNew: includeNew})
		resp.TemplateID = existing.ID
	}
	c.JSON(http.StatusOK, resp)
}

type fromDiscoveryRequest struct {
	TemplateID  string                   `json:"template_id"`
	UserIntent  string                   `json:"user_intent"`
	SampleCount int                      `json:"sample_count"`
	Fields      []entity.DiscoveredField `json:"fields"`
}

// POST /api/templates/from-discovery
// Promotes reviewed discovered fields into a new template, or into
// template_id when editing.
func (s *Server) templateFromDiscovery(c *gin.Context) {
	ctx := c.Request.Context()
	var req fromDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body: "+err.Error()))
		return
	}

	var existing *entity.Template
	if req.TemplateID != "" {
		var err error
		if existing, err = s.templates.Get(ctx, req.TemplateID); err != nil {
			s.writeError(c, err)
			return
		}
	}

	tpl, err := discovery.BuildTemplate(existing, req.Fields, req.UserIntent, req.SampleCount, time.Now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	saved, err := s.templates.Save(ctx, tpl)
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if existing != nil {
		status = http.StatusOK
	}
	c.JSON(status, saved)
}
