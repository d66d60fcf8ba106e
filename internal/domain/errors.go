package domain

import (
	"errors"
	"fmt"
)

// Error codes for categorization
const (
	// Client errors (4xx)
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeConflict    = "CONFLICT"
	ErrCodeRateLimited = "RATE_LIMITED"
	ErrCodeBadRequest  = "BAD_REQUEST"

	// Server errors (5xx)
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeDatabase    = "DATABASE_ERROR"
	ErrCodeExternalAPI = "EXTERNAL_API_ERROR"

	// Business logic errors
	ErrCodeScrapeFailed      = "SCRAPE_FAILED"
	ErrCodeAnalysisInFlight  = "ANALYSIS_IN_PROGRESS"
)

// DomainError is a structured error for domain operations
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
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

// Is implements errors.Is for error comparison
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel domain errors (used with errors.Is)
var (
	ErrNotFoundVal         = &DomainError{Code: ErrCodeNotFound, Message: "not found"}
	ErrInvalidInputVal     = &DomainError{Code: ErrCodeValidation, Message: "invalid input"}
	ErrConflictVal         = &DomainError{Code: ErrCodeConflict, Message: "conflict"}
	ErrAnalysisInFlightVal = &DomainError{Code: ErrCodeAnalysisInFlight, Message: "analysis already in progress"}
)

// NotFoundError creates a not found domain error
func NotFoundError(resource string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
		Err:     ErrNotFoundVal,
	}
}

// ValidationError creates a validation domain error
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
		Details: map[string]any{"field": field},
		Err:     ErrInvalidInputVal,
	}
}

// ConflictError creates a conflict domain error
func ConflictError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: message,
		Err:     ErrConflictVal,
	}
}

// AnalysisInFlightError signals that a second analysis was requested for a
// user while one is still running. The caller rejects it, never queues.
func AnalysisInFlightError(userID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAnalysisInFlight,
		Message: "an analysis is already in progress for this user",
		Details: map[string]any{"user_id": userID},
		Err:     ErrAnalysisInFlightVal,
	}
}

// ScrapeError wraps a page fetch or scrape failure
func ScrapeError(url string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeScrapeFailed,
		Message: fmt.Sprintf("failed to scrape page: %s", url),
		Details: map[string]any{"url": url},
		Err:     err,
	}
}

// DatabaseError wraps a repository failure
func DatabaseError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeDatabase,
		Message: "database error",
		Err:     err,
	}
}

// ExternalAPIError wraps a failure from an upstream service
func ExternalAPIError(service string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeExternalAPI,
		Message: fmt.Sprintf("external API error: %s", service),
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// IsNotFound reports whether err is a not found domain error
func IsNotFound(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrCodeNotFound
	}
	return false
}

// GetErrorCode returns the error code for an error
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternal
}
