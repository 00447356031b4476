package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/export"
)

type exportRequest struct {
	TemplateID      string                    `json:"template_id"`
	Format          string                    `json:"format"`
	Results         []entity.ExtractionResult `json:"results"`
	IncludeHeaders  *bool                     `json:"include_headers"`
	IncludeFilename *bool                     `json:"include_filename"`
	Indices         []int                     `json:"indices"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// POST /api/export
// Renders the successful results as csv, tsv or xlsx and returns the file.
func (s *Server) exportResults(c *gin.Context) {
	ctx := c.Request.Context()
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		s.writeError(c, err)
		return
	}
	tpl, err := s.resolveTemplate(ctx, req.TemplateID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	data, err := s.export.Export(ctx, format, req.Results, tpl, export.Options{
		IncludeHeaders:  boolOr(req.IncludeHeaders, true),
		IncludeFilename: boolOr(req.IncludeFilename, true),
		Indices:         req.Indices,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.export.FileName(tpl, format)))
	c.Data(http.StatusOK, format.ContentType(), data)
}
