package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidDocument indicates a malformed input document.
	// Fatal: surfaced immediately, never retried.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrNoDate indicates no supported date pattern was found.
	ErrNoDate = errors.New("no date found")

	// ErrInvalidDate indicates a matched date failed validation
	// (pre-1900, in the future, or a non-existent calendar date).
	ErrInvalidDate = errors.New("invalid date")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// The pipeline degrades to local-heuristic extraction.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrBudgetExhausted indicates the document-level token budget was
	// spent. Remaining chunk work is not dispatched; this is a soft
	// cutoff, not a failure.
	ErrBudgetExhausted = errors.New("token budget exhausted")

	// ErrStrategyFailed indicates a chosen non-legacy strategy failed.
	// Recovered via fallback-to-legacy when configured.
	ErrStrategyFailed = errors.New("strategy execution failed")
)

// SchemaValidationError reports a timeline that violates its structural
// invariants. It lists every offending field so the caller can see the
// full damage in one pass. Generation is aborted rather than emitting a
// corrupt timeline.
type SchemaValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("timeline schema validation failed: %s", strings.Join(e.Fields, "; "))
}

// ExternalServiceError wraps a failure from the LLM collaborator.
// Retried with bounded exponential backoff; on exhaustion the affected
// chunk degrades to local-heuristic extraction.
type ExternalServiceError struct {
	Service    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying:
// rate limits, server errors and transport errors are; 4xx client
// errors are not.
func (e *ExternalServiceError) Retryable() bool {
	if e.StatusCode == 0 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// ServiceError is the structured failure handed to callers. Partial
// chunk failures never surface here; only document-level failures do.
type ServiceError struct {
	// Code is a stable machine-readable error code.
	Code string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Well-known service error codes.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeSchema     = "SCHEMA_VALIDATION_ERROR"
	CodeStrategy   = "STRATEGY_EXECUTION_ERROR"
)
