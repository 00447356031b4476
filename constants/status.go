package constants

// ResultStatus is the lifecycle state of one document inside a batch.
type ResultStatus string

const (
	ResultStatusPending    ResultStatus = "pending"
	ResultStatusProcessing ResultStatus = "processing"
	ResultStatusSuccess    ResultStatus = "success"
	ResultStatusError      ResultStatus = "error"
)

// Terminal reports whether no further transition is allowed from s.
func (s ResultStatus) Terminal() bool {
	return s == ResultStatusSuccess || s == ResultStatusError
}

// ValidationStatus tells a real document-type verdict apart from the fail-open fallback.
type ValidationStatus string

const (
	ValidationStatusValidated ValidationStatus = "validated"
	ValidationStatusDegraded  ValidationStatus = "degraded"
)
