package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a failure with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "CMP-CODE-4220")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another *DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap is shorthand for WithCause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the outermost error code from an error chain.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Serialization errors (CODE).
var (
	// ErrDecode indicates stored bytes do not match the requested value type.
	ErrDecode = NewDomainError("CMP-CODE-4220", "stored value does not match requested type")

	// ErrEncode indicates a value could not be serialized.
	ErrEncode = NewDomainError("CMP-CODE-5000", "value cannot be serialized")
)

// Address errors (ADDR).
var (
	// ErrAddressCodec indicates an address is malformed or unrepresentable.
	ErrAddressCodec = NewDomainError("CMP-ADDR-4000", "address conversion failed")
)

// Storage errors (STOR).
var (
	// ErrBackend indicates the raw store failed.
	ErrBackend = NewDomainError("CMP-STOR-5000", "storage backend error")

	// ErrInvalidKey indicates a namespace and key could not be combined.
	ErrInvalidKey = NewDomainError("CMP-STOR-4000", "invalid storage key")

	// ErrCommit indicates buffered request writes could not be committed.
	ErrCommit = NewDomainError("CMP-STOR-5001", "commit failed")
)

// Dispatch errors (DISP).
var (
	// ErrUnknownMessage indicates no handler is registered for a message variant.
	ErrUnknownMessage = NewDomainError("CMP-DISP-4040", "unknown message variant")

	// ErrMalformedMessage indicates a message envelope could not be parsed.
	ErrMalformedMessage = NewDomainError("CMP-DISP-4000", "malformed message")

	// ErrHandler indicates business logic rejected a message.
	ErrHandler = NewDomainError("CMP-DISP-4220", "handler failed")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("CMP-ARG-1001", "invalid argument")

	// ErrUnauthorized indicates the sender may not perform the operation.
	ErrUnauthorized = NewDomainError("CMP-ARG-4030", "unauthorized")
)
