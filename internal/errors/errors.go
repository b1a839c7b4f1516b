package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedSpec indicates a structurally invalid API description.
	// This is the only fatal code: analysis cannot start without a model.
	MalformedSpec ErrorCode = "MALFORMED_SPEC"
	// UnresolvedReference indicates a $ref that could not be resolved.
	// Recoverable: the schema region degrades to reduced confidence.
	UnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// AmbiguousCallerMatch indicates a source line matched more than one endpoint.
	// Recoverable: every candidate is recorded at medium confidence.
	AmbiguousCallerMatch ErrorCode = "AMBIGUOUS_CALLER_MATCH"
	// EndpointLimitExceeded indicates the model was truncated to the plan limit.
	// Recoverable: truncation is flagged in the result.
	EndpointLimitExceeded ErrorCode = "ENDPOINT_LIMIT_EXCEEDED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// RippleError represents a Ripple error with a stable code and message
type RippleError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewRippleError creates a new RippleError
func NewRippleError(code ErrorCode, message string, cause error) *RippleError {
	return &RippleError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *RippleError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RippleError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RippleError) WithDetails(details interface{}) *RippleError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError when err carries none.
func CodeOf(err error) ErrorCode {
	var re *RippleError
	if errors.As(err, &re) {
		return re.Code
	}
	return InternalError
}

// IsFatal reports whether err must abort the run. Every code except
// MalformedSpec is absorbed into the output as an annotated degradation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == MalformedSpec || CodeOf(err) == InternalError
}
