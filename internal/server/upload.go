package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

// limitBody caps request bodies at MaxUploadBytes.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
		c.Next()
	}
}

// multipartForm parses the request form and turns an oversized body into 413.
func (s *Server) multipartForm(c *gin.Context) (*multipart.Form, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  "PAYLOAD_TOO_LARGE",
			})
			return nil, false
		}
		s.writeError(c, badRequest("invalid multipart form: "+err.Error()))
		return nil, false
	}
	return form, true
}

func readDocument(fh *multipart.FileHeader) (entity.Document, error) {
	if !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
		return entity.Document{}, badRequest(fmt.Sprintf("%s: only PDF files are accepted", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return entity.Document{}, common.WrapError(err, "open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entity.Document{}, common.WrapError(err, "read upload")
	}
	return entity.Document{FileName: fh.Filename, Content: data}, nil
}

func readDocuments(files []*multipart.FileHeader) ([]entity.Document, error) {
	docs := make([]entity.Document, 0, len(files))
	for _, fh := range files {
		doc, err := readDocument(fh)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func formValue(form *multipart.Form, name string) string {
	if v := form.Value[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formBool(form *multipart.Form, name string, def bool) (bool, error) {
	v := formValue(form, name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest(fmt.Sprintf("%s must be a boolean", name))
	}
	return b, nil
}

func formInt(form *multipart.Form, name string) (int, error) {
	v := formValue(form, name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
