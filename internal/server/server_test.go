// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecom-query-gateway/internal/common/config"
	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/models"
)

type fakeRouter struct {
	gotRequest string
	result     *models.QueryResult
	err        error
}

func (f *fakeRouter) Handle(_ context.Context, request string) (*models.QueryResult, error) {
	f.gotRequest = request
	return f.result, f.err
}

func newTestServer(t *testing.T, router QueryRouter) *Server {
	t.Helper()
	return New(config.ServerConfig{Address: ":0"}, router, nil, logger.NewTestLogger(t))
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestQueryEndpoint_Success(t *testing.T) {
	router := &fakeRouter{result: &models.QueryResult{
		Rows:    []models.Row{{"payment_id": "PAY-1"}},
		Path:    models.PathFast,
		Reason:  "single-entity",
		Queries: 1,
	}}
	srv := newTestServer(t, router)

	w := postQuery(t, srv.Handler(), `{"question": "show me payments for ACC-1002"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "show me payments for ACC-1002", router.gotRequest)

	var resp struct {
		Rows    []models.Row `json:"rows"`
		Path    string       `json:"path"`
		Reason  string       `json:"reason"`
		Queries int          `json:"queries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.PathFast, resp.Path)
	assert.Equal(t, "single-entity", resp.Reason)
	assert.Equal(t, 1, resp.Queries)
	require.Len(t, resp.Rows, 1)
}

func TestQueryEndpoint_ErrorStatusFollowsKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "validation",
			err:        apperrors.NewValidationError("request text is empty"),
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
		},
		{
			name:       "upstream timeout",
			err:        apperrors.NewUpstreamTimeoutError("deadline").WithRoute("fast", "single-entity"),
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   "upstream_timeout",
		},
		{
			name:       "orchestration exhausted",
			err:        apperrors.NewOrchestrationExhaustedError("budget", 2).WithRoute("slow", "multiple-entities"),
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   "orchestration_exhausted",
		},
		{
			name:       "upstream error",
			err:        apperrors.NewUpstreamError("bad filter", false),
			wantStatus: http.StatusBadGateway,
			wantKind:   "upstream_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRouter{err: tt.err})

			w := postQuery(t, srv.Handler(), `{"question": "whatever"}`)
			require.Equal(t, tt.wantStatus, w.Code)

			var resp struct {
				Error *apperrors.QueryError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantKind, string(resp.Error.Kind))
		})
	}
}

func TestQueryEndpoint_ErrorBodyCarriesRoute(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{
		err: apperrors.NewUpstreamTimeoutError("query exceeded 5s").WithRoute("fast", "single-entity"),
	})

	w := postQuery(t, srv.Handler(), `{"question": "show payments"}`)

	var resp struct {
		Error *apperrors.QueryError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fast", resp.Error.Path)
	assert.Equal(t, "single-entity", resp.Error.Reason)
	assert.True(t, resp.Error.Retryable)
}

func TestQueryEndpoint_MalformedBody(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{})

	w := postQuery(t, srv.Handler(), `{"question": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error *apperrors.QueryError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.KindValidation, resp.Error.Kind)
}

func TestQueryEndpoint_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/query", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueryEndpoint_UnstructuredRouterErrorIsWrapped(t *testing.T) {
	srv := newTestServer(t, &fakeRouter{err: context.Canceled})

	w := postQuery(t, srv.Handler(), `{"question": "show payments"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp struct {
		Error *apperrors.QueryError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.KindRoutingInternal, resp.Error.Kind)
}
