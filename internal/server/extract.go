package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/internal/async"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/llm"
	"github.com/joseph-ayodele/docfields/internal/pipeline"
)

// extractOptions reads validate, strict and fields from the form.
func extractOptions(form *multipart.Form) (pipeline.ExtractOptions, error) {
	validate, err := formBool(form, "validate", true)
	if err != nil {
		return pipeline.ExtractOptions{}, err
	}
	strict, err := formBool(form, "strict", false)
	if err != nil {
		return pipeline.ExtractOptions{}, err
	}
	opts := pipeline.ExtractOptions{
		ValidateDocumentType: validate,
		Prompt:               llm.PromptOptions{StrictMode: strict},
	}
	if fields := formValue(form, "fields"); fields != "" {
		opts.Prompt.EnabledFields = make(map[string]bool)
		for _, key := range strings.Split(fields, ",") {
			if key = strings.TrimSpace(key); key != "" {
				opts.Prompt.EnabledFields[key] = true
			}
		}
	}
	if raw := formValue(form, "instructions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Prompt.CustomInstructions); err != nil {
			return pipeline.ExtractOptions{}, badRequest("instructions must be a JSON object of field key to text")
		}
	}
	return opts, nil
}

// POST /api/extract
// Form: file (PDF) or text, fileName, templateId, validate, strict, fields, instructions.
func (s *Server) extractDocument(c *gin.Context) {
	ctx := c.Request.Context()
	form, ok := s.multipartForm(c)
	if !ok {
		return
	}

	var doc entity.Document
	if files := form.File["file"]; len(files) > 0 {
		d, err := readDocument(files[0])
		if err != nil {
			s.writeError(c, err)
			return
		}
		doc = d
	} else {
		doc = entity.Document{FileName: formValue(form, "fileName"), Text: formValue(form, "text")}
		if doc.FileName == "" {
			doc.FileName = "document.txt"
		}
	}

	opts, err := extractOptions(form)
	if err != nil {
		s.writeError(c, err)
		return
	}
	tpl, err := s.resolveTemplate(ctx, formValue(form, "templateId"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	out, err := s.extractor.Extract(ctx, doc, tpl, opts)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res := entity.NewExtractionResult(doc.FileName)
	_ = res.Start()
	_ = res.Succeed(out.Data, out.Validation, out.Warnings)
	res.PromptVersion = out.PromptVersion
	res.Duration = out.Duration
	c.JSON(http.StatusOK, res)
}

type batchResponse struct {
	TemplateID string                    `json:"template_id"`
	Results    []entity.ExtractionResult `json:"results"`
	Succeeded  int                       `json:"succeeded"`
	Failed     int                       `json:"failed"`
}

func newBatchResponse(templateID string, results []entity.ExtractionResult) batchResponse {
	resp := batchResponse{TemplateID: templateID, Results: results}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	return resp
}

// batchConcurrency lets a request lower the configured concurrency, never raise it.
func (s *Server) batchConcurrency(requested int) int {
	if requested <= 0 || requested > s.cfg.BatchConcurrency {
		return s.cfg.BatchConcurrency
	}
	return requested
}

// POST /api/batch
// Form: files (PDF, repeated), templateId, concurrency (capped at the server's
// setting), validate, strict, fields.
// Clients that accept text/event-stream get one "status" event per transition
// followed by a "done" event carrying the full response.
func (s *Server) runBatch(c *gin.Context) {
	ctx := c.Request.Context()
	form, ok := s.multipartForm(c)
	if !ok {
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		s.writeError(c, badRequest("no files uploaded"))
		return
	}
	docs, err := readDocuments(files)
	if err != nil {
		s.writeError(c, err)
		return
	}
	extractOpts, err := extractOptions(form)
	if err != nil {
		s.writeError(c, err)
		return
	}
	concurrency, err := formInt(form, "concurrency")
	if err != nil {
		s.writeError(c, err)
		return
	}
	tpl, err := s.resolveTemplate(ctx, formValue(form, "templateId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(tpl.EnabledFields()) == 0 {
		s.writeError(c, &common.NoActiveFieldsError{TemplateID: tpl.ID})
		return
	}

	opts := []async.Option{async.WithConcurrency(s.batchConcurrency(concurrency)), async.WithExtractOptions(extractOpts)}

	if !strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		results := s.batch.Run(ctx, docs, tpl, opts...)
		c.JSON(http.StatusOK, newBatchResponse(tpl.ID, results))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	observe := func(ev async.StatusEvent) {
		c.SSEvent("status", ev)
		c.Writer.Flush()
	}
	results := s.batch.Run(ctx, docs, tpl, append(opts, async.WithObserver(observe))...)
	c.SSEvent("done", newBatchResponse(tpl.ID, results))
	c.Writer.Flush()
}
