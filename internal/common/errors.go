package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("operation not allowed")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NoActiveFieldsError is returned when a template has nothing enabled to extract.
type NoActiveFieldsError struct {
	TemplateID string
}

func (e *NoActiveFieldsError) Error() string {
	if e.TemplateID == "" {
		return "no active fields to extract"
	}
	return fmt.Sprintf("template %q has no active fields to extract", e.TemplateID)
}

// EmptyDocumentError means a document yielded no usable text.
type EmptyDocumentError struct {
	FileName string
	Cause    error
}

func (e *EmptyDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document %q has no extractable text: %v", e.FileName, e.Cause)
	}
	return fmt.Sprintf("document %q has no extractable text", e.FileName)
}

func (e *EmptyDocumentError) Unwrap() error {
	return e.Cause
}

// ResponseParseError keeps the raw model text that could not be decoded.
type ResponseParseError struct {
	Raw   string
	Cause error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Cause)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Cause
}

// DocumentTypeMismatchError is a confident verdict that the document is not
// of the expected type.
type DocumentTypeMismatchError struct {
	Expected   string
	Detected   string
	Confidence int
	Reason     string
}

func (e *DocumentTypeMismatchError) Error() string {
	msg := fmt.Sprintf("document does not look like a %s (detected %s, confidence %d%%)", e.Expected, e.Detected, e.Confidence)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ExtractionFailedError wraps a model call or parse failure during extraction.
type ExtractionFailedError struct {
	Cause error
	Raw   string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Cause)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Cause
}

// InsufficientSamplesError is returned by discovery before any model call.
type InsufficientSamplesError struct {
	Got  int
	Need int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("need at least %d documents with extractable text, got %d", e.Need, e.Got)
}

// ErrorCode returns a stable machine-readable code for err.
func ErrorCode(err error) string {
	var (
		appErr     *AppError
		noFields   *NoActiveFieldsError
		empty      *EmptyDocumentError
		parseErr   *ResponseParseError
		mismatch   *DocumentTypeMismatchError
		failed     *ExtractionFailedError
		fewSamples *InsufficientSamplesError
	)
	switch {
	case errors.As(err, &noFields):
		return "NO_ACTIVE_FIELDS"
	case errors.As(err, &empty):
		return "EMPTY_DOCUMENT"
	case errors.As(err, &mismatch):
		return "DOCUMENT_TYPE_MISMATCH"
	case errors.As(err, &fewSamples):
		return "INSUFFICIENT_SAMPLES"
	case errors.As(err, &failed):
		return "EXTRACTION_FAILED"
	case errors.As(err, &parseErr):
		return "RESPONSE_PARSE_ERROR"
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return "INVALID_INPUT"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps err onto the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		noFields   *NoActiveFieldsError
		empty      *EmptyDocumentError
		mismatch   *DocumentTypeMismatchError
		fewSamples *InsufficientSamplesError
		failed     *ExtractionFailedError
		parseErr   *ResponseParseError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation),
		errors.As(err, &noFields), errors.As(err, &fewSamples):
		return http.StatusBadRequest
	case errors.As(err, &empty), errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	case errors.As(err, &failed), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
