package errors

import "fmt"

// ErrorType represents different types of errors that can occur
// during an acquisition run
type ErrorType string

const (
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeChallenge  ErrorType = "challenge"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeSession    ErrorType = "session"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// IsRetryable checks if an error type should be retried.
// Navigation and rate-limit failures are transient; extraction failures
// are per-element and handled by skipping, session failures fall back to
// interactive login, and challenges require operator remediation.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNavigation, ErrorTypeRateLimit:
		return true
	case ErrorTypeExtraction, ErrorTypeChallenge, ErrorTypeSession:
		return false
	default:
		return false
	}
}
