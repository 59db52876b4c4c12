package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeUnreadableDocument   ErrorType = "unreadable_document"
	ErrorTypeRemoteCall           ErrorType = "remote_call"
	ErrorTypeExhaustedCredentials ErrorType = "exhausted_credentials"
	ErrorTypeMissingSlideImage    ErrorType = "missing_slide_image"
	ErrorTypeMissingNarration     ErrorType = "missing_narration"
	ErrorTypeEncoding             ErrorType = "encoding"
	ErrorTypeConfig               ErrorType = "config"
	ErrorTypeIO                   ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors

// UnreadableDocumentError: neither digital text nor OCR yielded content.
func UnreadableDocumentError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnreadableDocument, message, err)
}

// RemoteCallError: non-retryable failure from a remote service.
func RemoteCallError(message string, err error) *DomainError {
	return NewError(ErrorTypeRemoteCall, message, err)
}

// ExhaustedCredentialsError: every credential stayed quota-limited for the
// configured number of rotation cycles.
func ExhaustedCredentialsError(message string, err error) *DomainError {
	return NewError(ErrorTypeExhaustedCredentials, message, err)
}

// MissingSlideImageError: a timeline segment has no rendered slide image.
func MissingSlideImageError(message string, err error) *DomainError {
	return NewError(ErrorTypeMissingSlideImage, message, err)
}

// MissingNarrationError: a content slide has no narration clip. Display
// durations are measured, never inferred, so this is fatal.
func MissingNarrationError(message string, err error) *DomainError {
	return NewError(ErrorTypeMissingNarration, message, err)
}

// EncodingError: the media encoding toolchain failed.
func EncodingError(message string, err error) *DomainError {
	return NewError(ErrorTypeEncoding, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// IsType reports whether err (or anything it wraps) is a DomainError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}
