package operations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// ErrorType represents the kind of failure that ended a run
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeFetch  ErrorType = "fetch"
	ErrorTypeMerge  ErrorType = "merge"
	ErrorTypeWrite  ErrorType = "write"
)

// OperationError represents a fatal pipeline error
type OperationError struct {
	Type     ErrorType    `json:"type"`
	Batch    domain.Batch `json:"batch,omitempty"`
	Attempts int          `json:"attempts,omitempty"`
	Message  string       `json:"message"`
	Cause    error        `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if len(e.Batch) > 0 {
		fmt.Fprintf(&b, " (batch=%s attempts=%d)", strings.Join(e.Batch, ","), e.Attempts)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewConfigError creates an error for invalid input or configuration,
// raised before any network activity.
func NewConfigError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeConfig,
		Message: message,
		Cause:   cause,
	}
}

// NewFetchError creates an error for a batch that exhausted its retries
func NewFetchError(batch domain.Batch, attempts int, cause error) *OperationError {
	return &OperationError{
		Type:     ErrorTypeFetch,
		Batch:    batch,
		Attempts: attempts,
		Message:  "batch fetch failed",
		Cause:    cause,
	}
}

// NewMergeError creates a merge error
func NewMergeError(message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeMerge,
		Message: message,
	}
}

// NewWriteError creates an error for an unwritable output destination
func NewWriteError(path string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeWrite,
		Message: fmt.Sprintf("cannot write %s", path),
		Cause:   cause,
	}
}

// GetErrorType returns the type of the first OperationError in err's chain,
// or an empty string.
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ""
}

// IsType reports whether err carries an OperationError of type t
func IsType(err error, t ErrorType) bool {
	return err != nil && GetErrorType(err) == t
}
