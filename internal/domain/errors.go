package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeIndexDown        = "INDEX_UNAVAILABLE"
	ErrCodeInferenceDown    = "INFERENCE_UNAVAILABLE"
	ErrCodeInferenceTimeout = "INFERENCE_TIMEOUT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidGoalStatus     = NewDomainError(ErrCodeValidation, "invalid goal status")
	ErrInvalidTaskStatus     = NewDomainError(ErrCodeValidation, "invalid task status")
	ErrInvalidTaskPriority   = NewDomainError(ErrCodeValidation, "invalid task priority")
	ErrInvalidIndexJobStatus = NewDomainError(ErrCodeValidation, "invalid index job status")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidDateRange      = NewDomainError(ErrCodeValidation, "end date must not precede start date")
)

// Not found errors
var (
	ErrMemberNotFound   = NewDomainError(ErrCodeNotFound, "team member not found")
	ErrUpdateNotFound   = NewDomainError(ErrCodeNotFound, "status update not found")
	ErrGoalNotFound     = NewDomainError(ErrCodeNotFound, "goal not found")
	ErrTaskNotFound     = NewDomainError(ErrCodeNotFound, "task not found")
	ErrIndexJobNotFound = NewDomainError(ErrCodeNotFound, "index job not found")
)

// Already exists errors
var (
	ErrEmailAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "a team member with this email already exists")
)

// AI backend errors. These are recovered at the orchestrator boundary, not
// surfaced as hard request failures.
var (
	ErrIndexUnavailable     = NewDomainError(ErrCodeIndexDown, "vector index unavailable")
	ErrInferenceUnavailable = NewDomainError(ErrCodeInferenceDown, "llm backend unavailable")
	ErrInferenceTimeout     = NewDomainError(ErrCodeInferenceTimeout, "llm request timed out")
)
