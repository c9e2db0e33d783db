// Package server exposes the gateway over HTTP: one query endpoint, a
// health probe and the Prometheus scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telecom-query-gateway/internal/common/config"
	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/common/observability"
	"telecom-query-gateway/internal/models"
)

// QueryRouter is the slice of the routing layer the server consumes.
type QueryRouter interface {
	Handle(ctx context.Context, request string) (*models.QueryResult, error)
}

type Server struct {
	httpServer *http.Server
	router     QueryRouter
	obs        *observability.Observability
	logger     logger.Logger
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Rows    []models.Row `json:"rows"`
	Path    string       `json:"path"`
	Reason  string       `json:"reason"`
	Queries int          `json:"queries"`
}

type errorResponse struct {
	Error *apperrors.QueryError `json:"error"`
}

func New(cfg config.ServerConfig, router QueryRouter, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		router: router,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "http"}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}
	return s
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/query", s.handleQuery)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("request body must be JSON with a question field"))
		return
	}

	start := time.Now()
	result, err := s.router.Handle(r.Context(), req.Question)
	if err != nil {
		qe, ok := apperrors.AsQueryError(err)
		if !ok {
			qe = apperrors.NewRoutingInternalError(err.Error())
		}
		s.observe(r.Context(), qe.Path, "error", start)
		s.writeError(w, r, qe)
		return
	}

	s.observe(r.Context(), result.Path, "ok", start)
	s.writeJSON(w, http.StatusOK, queryResponse{
		Rows:    result.Rows,
		Path:    result.Path,
		Reason:  result.Reason,
		Queries: result.Queries,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) observe(ctx context.Context, path, status string, start time.Time) {
	if s.obs == nil {
		return
	}
	s.obs.RecordRequest(ctx, path, status)
	s.obs.RecordDuration(ctx, time.Since(start), path)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, qe *apperrors.QueryError) {
	s.logger.Warn("request failed", map[string]interface{}{
		"kind":   string(qe.Kind),
		"path":   qe.Path,
		"reason": qe.Reason,
		"remote": r.RemoteAddr,
	})
	s.writeJSON(w, apperrors.HTTPStatus(qe.Kind), errorResponse{Error: qe})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}
