// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Sidecar and search errors
const (
	ErrCodeSidecarUnavailable ErrorCode = "SIDECAR_UNAVAILABLE"
	ErrCodeSidecarTimeout     ErrorCode = "SIDECAR_TIMEOUT"
	ErrCodeSidecarError       ErrorCode = "SIDECAR_ERROR"

	ErrCodeEngineNotFound     ErrorCode = "ENGINE_NOT_FOUND"
	ErrCodeInvalidSearchInput ErrorCode = "INVALID_SEARCH_INPUT"

	ErrCodeFiltersFetchFailed  ErrorCode = "FILTERS_FETCH_FAILED"
	ErrCodeUpstreamFetchFailed ErrorCode = "UPSTREAM_FETCH_FAILED"

	ErrCodeManifestInvalid ErrorCode = "MANIFEST_INVALID"
)

// Generic codes
const (
	ErrCodeExternalService      ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout              ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule         ErrorCode = "BUSINESS_RULE_VIOLATION"
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
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err to a *StandardError if one is in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewSidecarUnavailableError covers transport failures and non-2xx answers.
func NewSidecarUnavailableError(err error) *StandardError {
	return newError(ErrCodeSidecarUnavailable, "4get sidecar unavailable", err.Error(), true)
}

func NewSidecarTimeoutError(engine string) *StandardError {
	return newError(ErrCodeSidecarTimeout, "4get sidecar timed out", fmt.Sprintf("engine=%s", engine), true).
		WithMetadata("engine", engine)
}

// NewSidecarError wraps an error reported by the sidecar in its response body.
// Scraper failures are usually upstream blocks, so one retry is allowed.
func NewSidecarError(engine, message string) *StandardError {
	return newError(ErrCodeSidecarError, "4get scraper error", message, true).
		WithMetadata("engine", engine)
}

func NewEngineNotFoundError(engine string) *StandardError {
	return newError(ErrCodeEngineNotFound, "Unknown search engine", engine, false).
		WithMetadata("engine", engine)
}

func NewInvalidSearchInputError(details string) *StandardError {
	return newError(ErrCodeInvalidSearchInput, "Invalid search input", details, false)
}

func NewFiltersFetchFailedError(engine string, err error) *StandardError {
	return newError(ErrCodeFiltersFetchFailed, "Failed to fetch engine filters", err.Error(), true).
		WithMetadata("engine", engine)
}

func NewUpstreamFetchFailedError(target string, err error) *StandardError {
	return newError(ErrCodeUpstreamFetchFailed, "Failed to fetch upstream page", err.Error(), true).
		WithMetadata("target", target)
}

func NewManifestInvalidError(details string) *StandardError {
	return newError(ErrCodeManifestInvalid, "Capability manifest is invalid", details, false)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes
// missing from the map are thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSidecarUnavailable:  "SIDECAR_UNAVAILABLE",
	ErrCodeSidecarTimeout:      "SIDECAR_TIMEOUT",
	ErrCodeSidecarError:        "SEARCH_ENGINE_ERROR",
	ErrCodeEngineNotFound:      "ENGINE_NOT_FOUND",
	ErrCodeInvalidSearchInput:  "INVALID_SEARCH_INPUT",
	ErrCodeFiltersFetchFailed:  "SIDECAR_UNAVAILABLE",
	ErrCodeUpstreamFetchFailed: "UPSTREAM_FETCH_FAILED",
	ErrCodeManifestInvalid:     "MANIFEST_INVALID",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSidecarUnavailable,
		ErrCodeFiltersFetchFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeSidecarTimeout,
		ErrCodeUpstreamFetchFailed,
		ErrCodeTimeout:
		return 2

	case ErrCodeSidecarError:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if engine, ok := stdErr.Metadata["engine"]; ok {
		vars["engine"] = engine
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
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
	case strings.HasPrefix(codeStr, "SIDECAR") || strings.Contains(codeStr, "FILTERS"):
		return "SIDECAR"
	case strings.Contains(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "ENGINE") || strings.Contains(codeStr, "MANIFEST"):
		return "REGISTRY"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "EXTERNAL"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}
