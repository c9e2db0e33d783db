// internal/agents/fast-query/handler.go
package fastquery

import (
	"context"
	"fmt"
	"time"

	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/dataservice"
	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/pkg/registry"
)

const Path = models.PathFast

// Handler serves requests classified simple: it resolves one target
// entity, extracts its filters and issues exactly one structured query.
// The query is an idempotent read, so a timed-out or transient failure is
// retried once with the identical query, never a mutated one.
type Handler struct {
	config   *Config
	registry *registry.EntityRegistry
	service  dataservice.Service
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, reg *registry.EntityRegistry, service dataservice.Service, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		registry: reg,
		service:  service,
		logger:   log.WithFields(map[string]interface{}{"path": Path}),
		now:      time.Now,
	}
}

func (h *Handler) Handle(ctx context.Context, request string, cls models.ClassificationResult) (*models.QueryResult, error) {
	entity, err := h.resolveEntity(request, cls)
	if err != nil {
		return nil, err
	}

	query, dropped := buildQuery(entity, request, h.now(), h.config.DefaultWindowDays)
	for _, prefix := range dropped {
		h.logger.Warn("identifier prefix not declared by target entity, filter dropped", map[string]interface{}{
			"entity": entity.Name,
			"prefix": prefix,
		})
	}

	rows, queries, err := h.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	h.logger.Info("query completed", map[string]interface{}{
		"entity":  entity.Name,
		"rows":    len(rows),
		"queries": queries,
	})
	return &models.QueryResult{
		Rows:    rows,
		Path:    Path,
		Reason:  cls.Reason,
		Queries: queries,
	}, nil
}

// resolveEntity prefers the classifier's match and falls back to
// re-deriving from the text. A simple-classified request with no
// resolvable entity is an inconsistent routing state: it is surfaced, not
// papered over with a default entity.
func (h *Handler) resolveEntity(request string, cls models.ClassificationResult) (*registry.Entity, error) {
	if len(cls.Entities) > 0 {
		if e, ok := h.registry.Lookup(cls.Entities[0]); ok {
			return e, nil
		}
	}

	matched := deriveEntity(h.registry, request)
	switch len(matched) {
	case 1:
		return matched[0], nil
	case 0:
		return nil, apperrors.NewRoutingInternalError("request classified simple but no target entity could be resolved")
	default:
		names := make([]string, len(matched))
		for i, e := range matched {
			names[i] = e.Name
		}
		return nil, apperrors.NewRoutingInternalError(fmt.Sprintf("request classified simple but resolves to multiple entities: %v", names))
	}
}

// execute issues the query under the short fast-path deadline. One retry
// is permitted for timeouts and errors the data service marks transient;
// structured permanent errors surface immediately.
func (h *Handler) execute(ctx context.Context, query *models.StructuredQuery) ([]models.Row, int, error) {
	attempts := h.config.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		qctx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
		rows, err := h.service.Query(qctx, query)
		cancel()

		if err == nil {
			return rows, attempt, nil
		}
		lastErr = err

		if dataservice.IsTimeout(err) || dataservice.IsTransient(err) {
			if attempt < attempts {
				h.logger.Warn("query failed, retrying once with the same query", map[string]interface{}{
					"entity": query.Entity,
					"error":  err.Error(),
				})
				continue
			}
			break
		}

		// Permanent structured error: no retry.
		return nil, attempt, apperrors.NewUpstreamError(err.Error(), false)
	}

	if dataservice.IsTimeout(lastErr) {
		return nil, attempts, apperrors.NewUpstreamTimeoutError(lastErr.Error())
	}
	return nil, attempts, apperrors.NewExhaustedRetriesError(lastErr.Error())
}
