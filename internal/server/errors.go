package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/docfields/internal/common"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps err onto a status code and a JSON body. Messages are the
// error strings; mismatch errors carry the expected and detected types.
func (s *Server) writeError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	resp := errorResponse{Error: err.Error(), Code: common.ErrorCode(err)}

	var (
		appErr   *common.AppError
		mismatch *common.DocumentTypeMismatchError
		failed   *common.ExtractionFailedError
	)
	switch {
	case errors.As(err, &mismatch):
		resp.Details = map[string]any{
			"expected_type": mismatch.Expected,
			"detected_type": mismatch.Detected,
			"confidence":    mismatch.Confidence,
			"reason":        mismatch.Reason,
		}
	case errors.As(err, &failed) && failed.Raw != "":
		resp.Details = map[string]any{"raw_response": failed.Raw}
	case errors.As(err, &appErr):
		resp.Error = appErr.Message
	}

	logger := common.LoggerFrom(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("http.error", "status", status, "code", resp.Code, "error", err)
	} else {
		logger.Info("http.error", "status", status, "code", resp.Code, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(msg string) error {
	return common.NewAppError("INVALID_INPUT", msg, common.ErrInvalidInput)
}
