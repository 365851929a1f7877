// Package errors provides standardized error handling for the assistant and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Error Taxonomy
// ==========================

// Kind is the coarse failure class surfaced on an ActionOutcome.
type Kind string

const (
	KindParseError              Kind = "ParseError"
	KindValidationError         Kind = "ValidationError"
	KindCollaboratorUnavailable Kind = "CollaboratorUnavailable"
	KindInternalError           Kind = "InternalError"
)

// Ptr is used when a Kind has to be attached to an optional field.
func (k Kind) Ptr() *Kind {
	return &k
}

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEmptyMessage   ErrorCode = "EMPTY_MESSAGE"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeExpressionInvalid ErrorCode = "EXPRESSION_INVALID"
	ErrCodeMissingEntities   ErrorCode = "MISSING_ENTITIES"

	ErrCodeStorageUnavailable  ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeStorageWriteFailed  ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeStorageQueryFailed  ErrorCode = "STORAGE_QUERY_FAILED"
	ErrCodeStorageQueryTimeout ErrorCode = "STORAGE_QUERY_TIMEOUT"
	ErrCodeDocumentNotFound    ErrorCode = "DOCUMENT_NOT_FOUND"

	ErrCodeCalendarUnavailable   ErrorCode = "CALENDAR_UNAVAILABLE"
	ErrCodeCalendarRequestFailed ErrorCode = "CALENDAR_REQUEST_FAILED"

	ErrCodeGenAIUnavailable ErrorCode = "GENAI_UNAVAILABLE"
	ErrCodeGenAITimeout     ErrorCode = "GENAI_TIMEOUT"
	ErrCodeGenAIFailed      ErrorCode = "GENAI_FAILED"

	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Kind maps the error code onto the taxonomy.
func (e *StandardError) Kind() Kind {
	switch e.Code {
	case ErrCodeExpressionInvalid:
		return KindParseError
	case ErrCodeMissingEntities, ErrCodeEmptyMessage, ErrCodeInvalidRequest:
		return KindValidationError
	case ErrCodeStorageUnavailable, ErrCodeStorageWriteFailed, ErrCodeStorageQueryFailed,
		ErrCodeStorageQueryTimeout, ErrCodeDocumentNotFound, ErrCodeCalendarUnavailable, ErrCodeCalendarRequestFailed,
		ErrCodeGenAIUnavailable, ErrCodeGenAITimeout, ErrCodeGenAIFailed:
		return KindCollaboratorUnavailable
	default:
		return KindInternalError
	}
}

// KindOf classifies any error. Errors that are not StandardErrors are internal.
func KindOf(err error) Kind {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Kind()
	}
	return KindInternalError
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewEmptyMessageError is the only hard rejection of an inbound turn.
func NewEmptyMessageError() *StandardError {
	return newError(ErrCodeEmptyMessage, "Message is required", "", false, nil)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false, nil)
}

func NewExpressionInvalidError(err error) *StandardError {
	return newError(ErrCodeExpressionInvalid, "Expression could not be evaluated", err.Error(), false, err)
}

func NewMissingEntitiesError(intent string, fields []string) *StandardError {
	return newError(ErrCodeMissingEntities, "Required entities missing",
		fmt.Sprintf("intent: %s, missing: %s", intent, strings.Join(fields, ",")), false, nil)
}

func NewStorageUnavailableError(err error) *StandardError {
	return newError(ErrCodeStorageUnavailable, "Storage backend unavailable", err.Error(), true, err)
}

func NewStorageWriteFailedError(collection string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, "Storage write failed",
		fmt.Sprintf("collection: %s, error: %s", collection, err.Error()), true, err)
}

func NewStorageQueryFailedError(collection string, err error) *StandardError {
	return newError(ErrCodeStorageQueryFailed, "Storage query failed",
		fmt.Sprintf("collection: %s, error: %s", collection, err.Error()), true, err)
}

func NewStorageQueryTimeoutError(collection string, err error) *StandardError {
	return newError(ErrCodeStorageQueryTimeout, "Storage query timeout",
		fmt.Sprintf("collection: %s", collection), true, err)
}

func NewDocumentNotFoundError(collection string, err error) *StandardError {
	return newError(ErrCodeDocumentNotFound, "Document not found",
		fmt.Sprintf("collection: %s, error: %s", collection, err.Error()), false, err)
}

func NewCalendarUnavailableError(err error) *StandardError {
	return newError(ErrCodeCalendarUnavailable, "Calendar service not available", err.Error(), false, err)
}

func NewCalendarRequestFailedError(err error) *StandardError {
	return newError(ErrCodeCalendarRequestFailed, "Calendar request failed", err.Error(), true, err)
}

func NewGenAIUnavailableError(err error) *StandardError {
	return newError(ErrCodeGenAIUnavailable, "Generative reply service not available", err.Error(), false, err)
}

func NewGenAITimeoutError(err error) *StandardError {
	return newError(ErrCodeGenAITimeout, "Generative reply timeout", "call exceeded timeout threshold", true, err)
}

func NewGenAIFailedError(err error) *StandardError {
	return newError(ErrCodeGenAIFailed, "Generative reply API error", err.Error(), true, err)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Internal server error", err.Error(), false, err)
}

// Generic constructors used by the Zeebe client wrapper.

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageUnavailable,
		ErrCodeStorageWriteFailed,
		ErrCodeStorageQueryFailed,
		ErrCodeCalendarRequestFailed,
		ErrCodeGenAIFailed:
		return 3

	case ErrCodeStorageQueryTimeout,
		ErrCodeGenAITimeout:
		return 2

	case "EXTERNAL_SERVICE_ERROR", "TIMEOUT_ERROR":
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorKind": string(stdErr.Kind()),
			"timestamp": stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STORAGE") || strings.HasPrefix(codeStr, "DOCUMENT"):
		return "STORAGE"
	case strings.HasPrefix(codeStr, "CALENDAR"):
		return "CALENDAR"
	case strings.HasPrefix(codeStr, "GENAI"):
		return "AI"
	case strings.HasPrefix(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "EXPRESSION") || strings.Contains(codeStr, "ENTITIES") ||
		strings.Contains(codeStr, "MESSAGE") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
