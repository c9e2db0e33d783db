// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_KindAndRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       *QueryError
		wantKind  Kind
		retryable bool
	}{
		{name: "validation", err: NewValidationError("empty text"), wantKind: KindValidation, retryable: false},
		{name: "routing internal", err: NewRoutingInternalError("no entity"), wantKind: KindRoutingInternal, retryable: false},
		{name: "upstream timeout", err: NewUpstreamTimeoutError("5s exceeded"), wantKind: KindUpstreamTimeout, retryable: true},
		{name: "upstream transient", err: NewUpstreamError("reset", true), wantKind: KindUpstreamError, retryable: true},
		{name: "upstream permanent", err: NewUpstreamError("bad filter", false), wantKind: KindUpstreamError, retryable: false},
		{name: "exhausted retries", err: NewExhaustedRetriesError("still failing"), wantKind: KindExhaustedRetries, retryable: false},
		{name: "orchestration exhausted", err: NewOrchestrationExhaustedError("budget", 3), wantKind: KindOrchestrationExhausted, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestOrchestrationExhausted_ReportsPartialProgress(t *testing.T) {
	none := NewOrchestrationExhaustedError("deadline", 0)
	assert.Contains(t, none.Message, "no progress")

	some := NewOrchestrationExhaustedError("budget", 4)
	assert.Contains(t, some.Message, "4 completed steps")
}

func TestWithRoute_DoesNotMutateOriginal(t *testing.T) {
	orig := NewUpstreamTimeoutError("deadline")
	annotated := orig.WithRoute("fast", "single-entity")

	assert.Equal(t, "fast", annotated.Path)
	assert.Equal(t, "single-entity", annotated.Reason)
	assert.Empty(t, orig.Path)
	assert.Empty(t, orig.Reason)
	assert.Equal(t, orig.Kind, annotated.Kind)
}

func TestAsQueryError_UnwrapsWrappedErrors(t *testing.T) {
	orig := NewValidationError("bad input")
	wrapped := fmt.Errorf("handling request: %w", orig)

	qe, ok := AsQueryError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindValidation, qe.Kind)

	_, ok = AsQueryError(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUpstreamTimeout, KindOf(NewUpstreamTimeoutError("x")))
	assert.Equal(t, KindRoutingInternal, KindOf(errors.New("unclassified")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUpstreamTimeout, http.StatusGatewayTimeout},
		{KindOrchestrationExhausted, http.StatusGatewayTimeout},
		{KindUpstreamError, http.StatusBadGateway},
		{KindExhaustedRetries, http.StatusBadGateway},
		{KindRoutingInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), string(tt.kind))
	}
}
