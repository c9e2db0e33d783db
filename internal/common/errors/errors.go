// Package errors provides the structured error taxonomy returned to gateway callers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind identifies the failure class of a QueryError.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindRoutingInternal        Kind = "routing_internal"
	KindUpstreamTimeout        Kind = "upstream_timeout"
	KindUpstreamError          Kind = "upstream_error"
	KindExhaustedRetries       Kind = "exhausted_retries"
	KindOrchestrationExhausted Kind = "orchestration_exhausted"
)

// QueryError is the structured error carried back to callers. Path and
// Reason record which handler processed the request and why the router
// chose it, so every failure stays auditable.
type QueryError struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Path      string    `json:"path,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("QueryError[%s]: %s", e.Kind, e.Message)
}

// WithRoute returns a copy annotated with the handler path and the
// classification reason. The original error is not mutated.
func (e *QueryError) WithRoute(path, reason string) *QueryError {
	c := *e
	c.Path = path
	c.Reason = reason
	return &c
}

// NewValidationError reports malformed caller input. Never retried.
func NewValidationError(details string) *QueryError {
	return &QueryError{
		Kind:      KindValidation,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRoutingInternalError reports an inconsistent routing state, such as a
// simple-classified request with no resolvable entity.
func NewRoutingInternalError(details string) *QueryError {
	return &QueryError{
		Kind:      KindRoutingInternal,
		Message:   "Routing reached an inconsistent state",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError reports a data service call that exceeded its deadline.
func NewUpstreamTimeoutError(details string) *QueryError {
	return &QueryError{
		Kind:      KindUpstreamTimeout,
		Message:   "Data service call timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError reports a structured failure returned by the data service.
func NewUpstreamError(details string, transient bool) *QueryError {
	return &QueryError{
		Kind:      KindUpstreamError,
		Message:   "Data service returned an error",
		Details:   details,
		Retryable: transient,
		Timestamp: time.Now().UTC(),
	}
}

// NewExhaustedRetriesError reports a query that still failed after the
// single permitted retry.
func NewExhaustedRetriesError(details string) *QueryError {
	return &QueryError{
		Kind:      KindExhaustedRetries,
		Message:   "Query failed after retry",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrchestrationExhaustedError reports a complex query that hit its step
// or time bound. stepsDone distinguishes abandoned partial progress from no
// progress at all.
func NewOrchestrationExhaustedError(details string, stepsDone int) *QueryError {
	msg := "Orchestration exceeded its bounds with no progress"
	if stepsDone > 0 {
		msg = fmt.Sprintf("Orchestration exceeded its bounds after %d completed steps", stepsDone)
	}
	return &QueryError{
		Kind:      KindOrchestrationExhausted,
		Message:   msg,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsQueryError unwraps err into a *QueryError when possible.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or routing_internal for unclassified errors.
func KindOf(err error) Kind {
	if qe, ok := AsQueryError(err); ok {
		return qe.Kind
	}
	return KindRoutingInternal
}

// IsRetryable reports whether err may be retried with the same query.
func IsRetryable(err error) bool {
	if qe, ok := AsQueryError(err); ok {
		return qe.Retryable
	}
	return false
}

// HTTPStatus maps an error kind to the caller-facing HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamTimeout, KindOrchestrationExhausted:
		return http.StatusGatewayTimeout
	case KindUpstreamError, KindExhaustedRetries:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
