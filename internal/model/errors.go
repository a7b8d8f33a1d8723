package model

import "fmt"

// ErrorKind is a stable, machine-readable error classification. Every
// error surfaced across component boundaries carries one of these.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "validation_error"
	ErrorKindPlanGeneration    ErrorKind = "plan_generation_error"
	ErrorKindBrowserExecution  ErrorKind = "browser_execution_error"
	ErrorKindNavigationTimeout ErrorKind = "navigation_timeout"
	ErrorKindCacheBackend      ErrorKind = "cache_backend_error"
	ErrorKindTransportTimeout  ErrorKind = "transport_timeout"
	ErrorKindRateLimited       ErrorKind = "rate_limited"
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindInternal          ErrorKind = "internal_error"
)

// DomainError is the one error type every component returns across package
// boundaries: a stable kind, a human message, and an optional details bag
// (e.g. {"stepId": "..."} for BrowserExecutionError).
type DomainError struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: ErrorKindValidation, Message: message}
}

func NewPlanGenerationError(message string, err error) *DomainError {
	return &DomainError{Kind: ErrorKindPlanGeneration, Message: message, Err: err}
}

func NewBrowserExecutionError(message, stepID string, err error) *DomainError {
	return &DomainError{
		Kind:    ErrorKindBrowserExecution,
		Message: message,
		Details: map[string]any{"stepId": stepID},
		Err:     err,
	}
}

func NewNavigationTimeoutError(url string, err error) *DomainError {
	return &DomainError{
		Kind:    ErrorKindNavigationTimeout,
		Message: fmt.Sprintf("navigation to %s timed out", url),
		Err:     err,
	}
}

func NewCacheBackendError(message string, err error) *DomainError {
	return &DomainError{Kind: ErrorKindCacheBackend, Message: message, Err: err}
}

func NewNotFoundError(message string) *DomainError {
	return &DomainError{Kind: ErrorKindNotFound, Message: message}
}

func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Kind: ErrorKindInternal, Message: message, Err: err}
}
