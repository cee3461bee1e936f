// Package errors provides standardized error handling for the discovery pipeline
// and its BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Extraction never reaches the user; it selects the fallback parser.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"

	// Raised by the normalizer when it clamps a field. Never fatal.
	ErrCodeInvalidIntentField ErrorCode = "INVALID_INTENT_FIELD"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeQueryTimeout     ErrorCode = "QUERY_TIMEOUT"
	ErrCodeIndexNotFound    ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeMemoryUnavailable        ErrorCode = "MEMORY_UNAVAILABLE"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodePolicyInvalid  ErrorCode = "POLICY_INVALID"

	// Infrastructure codes, mostly from the zeebe client.
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
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
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so package sentinels
// work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Reason returns the metadata reason label, or "" when absent.
func (e *StandardError) Reason() string {
	if e.Metadata == nil {
		return ""
	}
	if r, ok := e.Metadata["reason"].(string); ok {
		return r
	}
	return ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrExtractionFailed   = &StandardError{Code: ErrCodeExtractionFailed}
	ErrInvalidIntentField = &StandardError{Code: ErrCodeInvalidIntentField}
	ErrStoreUnavailable   = &StandardError{Code: ErrCodeStoreUnavailable}
	ErrQueryTimeout       = &StandardError{Code: ErrCodeQueryTimeout}
	ErrIndexNotFound      = &StandardError{Code: ErrCodeIndexNotFound}
	ErrMemoryUnavailable  = &StandardError{Code: ErrCodeMemoryUnavailable}
)

// AsStandard extracts a *StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
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

// newError stamps a StandardError. details defaults to the cause's text.
func newError(code ErrorCode, message string, retryable bool, details string, cause error) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func (e *StandardError) with(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// NewExtractionFailedError records why the language extractor gave up.
// reason is a short label such as "timeout" or "schema".
func NewExtractionFailedError(reason string, err error) *StandardError {
	details := reason
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeExtractionFailed, "Language extraction failed", false, details, err).
		with("reason", reason)
}

// NewInvalidIntentFieldError describes a field the normalizer had to clamp.
func NewInvalidIntentFieldError(field string, value interface{}) *StandardError {
	return newError(ErrCodeInvalidIntentField, "Intent field out of range", false,
		fmt.Sprintf("field: %s, value: %v", field, value), nil).
		with("field", field)
}

// Catalog

func NewStoreUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeStoreUnavailable, "Catalog store unavailable", true,
		fmt.Sprintf("backend: %s, error: %v", backend, err), err).
		with("backend", backend)
}

func NewQueryTimeoutError(backend string, err error) *StandardError {
	return newError(ErrCodeQueryTimeout, "Catalog query timeout", true,
		fmt.Sprintf("backend: %s", backend), err).
		with("backend", backend)
}

// NewIndexNotFoundError is not retryable: the index has to be created or
// seeded first.
func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", false,
		fmt.Sprintf("index: %s", index), nil)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Catalog database connection failed", true, "", err)
}

func NewMemoryUnavailableError(op string, err error) *StandardError {
	return newError(ErrCodeMemoryUnavailable, "Conversation memory unavailable", true,
		fmt.Sprintf("op: %s, error: %v", op, err), err).
		with("op", op)
}

// Input

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", false, details, nil)
}

func NewPolicyInvalidError(details string) *StandardError {
	return newError(ErrCodePolicyInvalid, "Rule policy is invalid", false, details, nil)
}

// Workflow engine

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), true, "", err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), true, "", err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), false, details, nil)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", false, details, nil)
}

// ==========================
// 4. Retry & BPMN mapping
// ==========================

// BPMN error codes a process model can catch. Catalog failures share one
// code so a single boundary event covers every backend.
const (
	BPMNCatalogUnavailable = "CATALOG_UNAVAILABLE"
	BPMNInvalidInput       = "INVALID_INPUT"
	BPMNExtractionFailed   = "EXTRACTION_FAILED"
	BPMNMemoryUnavailable  = "MEMORY_UNAVAILABLE"
	BPMNWorkflowEngine     = "WORKFLOW_ENGINE_ERROR"
)

// BPMNErrorMapping maps internal codes to BPMN codes. Unmapped codes are
// thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeStoreUnavailable:         BPMNCatalogUnavailable,
	ErrCodeQueryTimeout:             BPMNCatalogUnavailable,
	ErrCodeIndexNotFound:            BPMNCatalogUnavailable,
	ErrCodeDatabaseConnectionFailed: BPMNCatalogUnavailable,
	ErrCodeInvalidRequest:           BPMNInvalidInput,
	ErrCodeInvalidIntentField:       BPMNInvalidInput,
	ErrCodePolicyInvalid:            BPMNInvalidInput,
	ErrCodeExtractionFailed:         BPMNExtractionFailed,
	ErrCodeMemoryUnavailable:        BPMNMemoryUnavailable,
	ErrCodeTimeout:                  BPMNWorkflowEngine,
	ErrCodeExternalService:          BPMNWorkflowEngine,
}

// GetRetryCount is the retry budget for a code; zero means throw at once.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeDatabaseConnectionFailed:
		return 3
	case ErrCodeQueryTimeout, ErrCodeTimeout, ErrCodeExternalService:
		return 2
	case ErrCodeMemoryUnavailable:
		return 1
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := 0
	if stdErr.Retryable {
		retries = GetRetryCount(stdErr.Code)
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if backend, ok := stdErr.Metadata["backend"]; ok {
		vars["catalogBackend"] = backend
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

// GetErrorCategory groups codes for logs and job variables.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeExtractionFailed:
		return "AI"
	case ErrCodeStoreUnavailable, ErrCodeQueryTimeout, ErrCodeIndexNotFound, ErrCodeDatabaseConnectionFailed:
		return "CATALOG"
	case ErrCodeMemoryUnavailable:
		return "MEMORY"
	case ErrCodeInvalidRequest, ErrCodeInvalidIntentField, ErrCodePolicyInvalid:
		return "VALIDATION"
	case ErrCodeTimeout, ErrCodeExternalService, ErrCodeResourceNotFound, ErrCodeAuthentication:
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}
