package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docfields/constants"
)

// ErrInvalidTransition is returned when a result is moved backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid result status transition")

// Validation is the document-type verdict attached to an extraction. A degraded
// verdict means the classifier could not be consulted and the document was let through.
type Validation struct {
	Status       constants.ValidationStatus `json:"status"`
	IsValid      bool                       `json:"is_valid"`
	ExpectedType string                     `json:"expected_type"`
	DetectedType string                     `json:"detected_type,omitempty"`
	Confidence   int                        `json:"confidence"`
	Reason       string                     `json:"reason,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
}

// Degraded reports whether the verdict is the fail-open fallback.
func (v *Validation) Degraded() bool {
	return v != nil && v.Status == constants.ValidationStatusDegraded
}

// ExtractionResult tracks one document through a batch.
type ExtractionResult struct {
	FileName      string                 `json:"file_name"`
	Status        constants.ResultStatus `json:"status"`
	Data          map[string]string      `json:"data,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Validation    *Validation            `json:"validation,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	PromptVersion string                 `json:"prompt_version,omitempty"`
	Duration      time.Duration          `json:"duration_ns,omitempty"`
}

func NewExtractionResult(fileName string) ExtractionResult {
	return ExtractionResult{FileName: fileName, Status: constants.ResultStatusPending}
}

// Start moves pending to processing.
func (r *ExtractionResult) Start() error {
	if r.Status != constants.ResultStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, constants.ResultStatusProcessing)
	}
	r.Status = constants.ResultStatusProcessing
	return nil
}

// Succeed moves processing to success and records the data.
func (r *ExtractionResult) Succeed(data map[string]string, validation *Validation, warnings []string) error {
	if r.Status != constants.ResultStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, constants.ResultStatusSuccess)
	}
	r.Status = constants.ResultStatusSuccess
	r.Data = data
	r.Validation = validation
	r.Warnings = warnings
	r.Error = ""
	return nil
}

// Fail settles a non-terminal result as error. Pending is accepted so documents
// that never started can be settled on cancellation.
func (r *ExtractionResult) Fail(err error) error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, constants.ResultStatusError)
	}
	r.Status = constants.ResultStatusError
	r.Data = nil
	if err != nil {
		r.Error = err.Error()
	}
	return nil
}
