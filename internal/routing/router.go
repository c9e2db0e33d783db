// internal/routing/router.go
package routing

import (
	"context"
	"strings"
	"time"

	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/common/metrics"
	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/internal/monitoring"
)

// Handler is the contract both path handlers satisfy.
type Handler interface {
	Handle(ctx context.Context, request string, cls models.ClassificationResult) (*models.QueryResult, error)
}

// Router validates a request, classifies it and dispatches it to the
// fast or slow path. Every outcome, success or failure, carries the path
// taken and the classification reason so routing stays auditable.
type Router struct {
	classifier *Classifier
	cache      *ClassificationCache // nil disables caching
	fast       Handler
	slow       Handler
	sink       monitoring.Sink
	logger     logger.Logger
}

func NewRouter(classifier *Classifier, fast, slow Handler, sink monitoring.Sink, log logger.Logger) *Router {
	if sink == nil {
		sink = monitoring.NopSink{}
	}
	return &Router{
		classifier: classifier,
		fast:       fast,
		slow:       slow,
		sink:       sink,
		logger:     log.WithFields(map[string]interface{}{"component": "router"}),
	}
}

// WithCache enables the optional classification cache.
func (r *Router) WithCache(cache *ClassificationCache) *Router {
	r.cache = cache
	return r
}

// Handle processes one request end to end. Errors are always
// *apperrors.QueryError values.
func (r *Router) Handle(ctx context.Context, request string) (*models.QueryResult, error) {
	start := time.Now()

	if strings.TrimSpace(request) == "" {
		err := apperrors.NewValidationError("request text is empty")
		r.record(request, "", models.ClassificationResult{}, start, 0, err)
		return nil, err
	}

	cls := r.classify(ctx, request)
	path := models.PathSlow
	handler := r.slow
	if cls.IsSimple {
		path = models.PathFast
		handler = r.fast
	}

	r.logger.Info("request routed", map[string]interface{}{
		"path":     path,
		"reason":   cls.Reason,
		"entities": cls.Entities,
		"score":    cls.Score,
	})
	metrics.RequestsRouted.WithLabelValues(path, cls.Reason).Inc()

	result, err := handler.Handle(ctx, request, cls)
	if err != nil {
		qe, ok := apperrors.AsQueryError(err)
		if !ok {
			qe = apperrors.NewRoutingInternalError(err.Error())
		}
		qe = qe.WithRoute(path, cls.Reason)
		metrics.RequestsFailed.WithLabelValues(path, string(qe.Kind)).Inc()
		r.record(request, path, cls, start, 0, qe)
		return nil, qe
	}

	metrics.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	r.record(request, path, cls, start, result.Queries, nil)
	return result, nil
}

// classify consults the cache when one is configured, falling back to the
// pure classifier. Cached entries are keyed by the normalized text, the
// same form the classifier compares against.
func (r *Router) classify(ctx context.Context, request string) models.ClassificationResult {
	normalized := strings.ToLower(strings.TrimSpace(request))
	if r.cache != nil {
		if cls, ok := r.cache.Get(ctx, normalized); ok {
			return cls
		}
	}
	cls := r.classifier.Classify(request)
	if r.cache != nil {
		r.cache.Set(ctx, normalized, cls)
	}
	return cls
}

func (r *Router) record(request, path string, cls models.ClassificationResult, start time.Time, queries int, err error) {
	rec := monitoring.Record{
		Path:       path,
		Reason:     cls.Reason,
		Request:    request,
		Entities:   cls.Entities,
		Score:      cls.Score,
		DurationMS: time.Since(start).Milliseconds(),
		Queries:    queries,
		Success:    err == nil,
	}
	if err != nil {
		rec.ErrorKind = string(apperrors.KindOf(err))
	}
	r.sink.Record(rec)
}
