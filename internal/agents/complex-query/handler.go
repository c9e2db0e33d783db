// internal/agents/complex-query/handler.go
package complexquery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/dataservice"
	"telecom-query-gateway/internal/models"
)

const Path = models.PathSlow

// Orchestrator is the multi-step capability the slow path delegates to.
// Implementations receive the data service to use for every tool call, so
// the handler can meter and bound those calls from the outside.
type Orchestrator interface {
	Run(ctx context.Context, request string, service dataservice.Service) (*models.QueryResult, error)
}

// Handler serves requests classified complex. It owns the bounds, not the
// orchestration: one overall wall-clock deadline covers the whole run and
// a hard cap on tool invocations stops unbounded looping. Nothing on this
// path is retried; retries would compound multi-step latency.
type Handler struct {
	config       *Config
	service      dataservice.Service
	orchestrator Orchestrator
	logger       logger.Logger
}

func NewHandler(config *Config, service dataservice.Service, orchestrator Orchestrator, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		service:      service,
		orchestrator: orchestrator,
		logger:       log.WithFields(map[string]interface{}{"path": Path}),
	}
}

func (h *Handler) Handle(ctx context.Context, request string, cls models.ClassificationResult) (*models.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.OverallTimeout)
	defer cancel()

	bounded := newBoundedService(h.service, h.config.MaxToolCalls)
	result, err := h.orchestrator.Run(ctx, request, bounded)
	if err != nil {
		return nil, h.translate(err, bounded.completed())
	}

	result.Path = Path
	result.Reason = cls.Reason
	result.Queries = bounded.completed()
	h.logger.Info("orchestration completed", map[string]interface{}{
		"rows":    len(result.Rows),
		"queries": result.Queries,
	})
	return result, nil
}

func (h *Handler) translate(err error, stepsDone int) error {
	switch {
	case errors.Is(err, errCallBudgetExhausted):
		return apperrors.NewOrchestrationExhaustedError(
			fmt.Sprintf("tool call budget of %d exceeded", h.config.MaxToolCalls), stepsDone)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewOrchestrationExhaustedError(
			fmt.Sprintf("overall deadline of %s exceeded", h.config.OverallTimeout), stepsDone)
	}
	if _, ok := apperrors.AsQueryError(err); ok {
		return err
	}
	if dataservice.IsTimeout(err) {
		return apperrors.NewUpstreamTimeoutError(err.Error())
	}
	if de, ok := dataservice.AsDataError(err); ok {
		return apperrors.NewUpstreamError(de.Error(), de.Transient)
	}
	return apperrors.NewUpstreamError(err.Error(), false)
}

// errCallBudgetExhausted marks the tool-invocation bound being hit.
var errCallBudgetExhausted = errors.New("orchestration tool call budget exhausted")

// boundedService decorates a data service with a call budget. Every tool
// invocation, query or discovery, spends one unit; the counter doubles as
// the partial-progress tally reported when a run is abandoned.
type boundedService struct {
	inner dataservice.Service
	max   int32
	calls atomic.Int32
	done  atomic.Int32
}

func newBoundedService(inner dataservice.Service, max int) *boundedService {
	return &boundedService{inner: inner, max: int32(max)}
}

func (b *boundedService) spend() error {
	if b.calls.Add(1) > b.max {
		return errCallBudgetExhausted
	}
	return nil
}

func (b *boundedService) Query(ctx context.Context, q *models.StructuredQuery) ([]models.Row, error) {
	if err := b.spend(); err != nil {
		return nil, err
	}
	rows, err := b.inner.Query(ctx, q)
	if err == nil {
		b.done.Add(1)
	}
	return rows, err
}

func (b *boundedService) Discover(ctx context.Context) ([]string, error) {
	if err := b.spend(); err != nil {
		return nil, err
	}
	products, err := b.inner.Discover(ctx)
	if err == nil {
		b.done.Add(1)
	}
	return products, err
}

// completed returns the number of tool calls that finished successfully.
func (b *boundedService) completed() int {
	return int(b.done.Load())
}
