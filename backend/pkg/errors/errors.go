package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeTransport represents failures talking to the messaging service
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeInput represents invalid user input
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeRecord represents message records that cannot be aggregated
	ErrorTypeRecord ErrorType = "record"
	// ErrorTypeExport represents failures writing the statistics table
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// typed lets IsErrorType see through the wrapper structs below.
type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// Transport Errors

// ErrTransportFailed is returned when a group or message page request fails.
// StatusCode is zero when no HTTP response was received.
type ErrTransportFailed struct {
	*BaseError
	Operation  string
	StatusCode int
}

func NewTransportFailed(operation string, statusCode int, err error) *ErrTransportFailed {
	msg := fmt.Sprintf("%s failed", operation)
	if statusCode != 0 {
		msg = fmt.Sprintf("%s failed with status %d", operation, statusCode)
	}
	return &ErrTransportFailed{
		BaseError:  NewBaseError(ErrorTypeTransport, msg, err),
		Operation:  operation,
		StatusCode: statusCode,
	}
}

// Input Errors

// ErrInvalidInput is returned when interactive input cannot be used
type ErrInvalidInput struct {
	*BaseError
	Input  string
	Reason string
}

func NewInvalidInput(input, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("invalid input %q: %s", input, reason), nil),
		Input:     input,
		Reason:    reason,
	}
}

// Record Errors

// ErrMalformedRecord is returned when a message record is missing required fields
type ErrMalformedRecord struct {
	*BaseError
	MessageID string
	Reason    string
}

func NewMalformedRecord(messageID, reason string) *ErrMalformedRecord {
	return &ErrMalformedRecord{
		BaseError: NewBaseError(ErrorTypeRecord, fmt.Sprintf("malformed message %q: %s", messageID, reason), nil),
		MessageID: messageID,
		Reason:    reason,
	}
}

// Export Errors

// ErrExportFailed is returned when the statistics table cannot be written
type ErrExportFailed struct {
	*BaseError
	Path string
}

func NewExportFailed(path string, err error) *ErrExportFailed {
	return &ErrExportFailed{
		BaseError: NewBaseError(ErrorTypeExport, fmt.Sprintf("failed to write %s", path), err),
		Path:      path,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrAnalysisNotFound is returned when a stored analysis does not exist
type ErrAnalysisNotFound struct {
	*BaseError
	AnalysisID string
}

func NewAnalysisNotFound(analysisID string) *ErrAnalysisNotFound {
	return &ErrAnalysisNotFound{
		BaseError:  NewBaseError(ErrorTypeGraph, fmt.Sprintf("analysis not found: %s", analysisID), nil),
		AnalysisID: analysisID,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.errorType() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsTransport reports whether err came from the messaging service transport
func IsTransport(err error) bool {
	return IsErrorType(err, ErrorTypeTransport)
}

// IsInput reports whether err was caused by invalid user input
func IsInput(err error) bool {
	return IsErrorType(err, ErrorTypeInput)
}
