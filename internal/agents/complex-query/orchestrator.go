// internal/agents/complex-query/orchestrator.go
package complexquery

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "telecom-query-gateway/internal/common/errors"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/dataservice"
	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/pkg/registry"
)

var (
	identifierRe = regexp.MustCompile(`\b([A-Za-z]{2,8})-([A-Za-z0-9]+)\b`)
	lastDaysRe   = regexp.MustCompile(`(?i)\blast\s+(\d+)\s*days?\b`)
	wordRe       = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// Pipeline is the default orchestration capability: discover available
// products, plan one sub-query per mentioned entity, execute them, then
// correlate the result sets on shared join keys. It re-plans a rejected
// sub-query with identifier filters only, at most MaxIterations passes.
type Pipeline struct {
	registry      *registry.EntityRegistry
	maxIterations int
	windowDays    int
	logger        logger.Logger
	now           func() time.Time
}

func NewPipeline(reg *registry.EntityRegistry, maxIterations, windowDays int, log logger.Logger) *Pipeline {
	if maxIterations <= 0 {
		maxIterations = 2
	}
	return &Pipeline{
		registry:      reg,
		maxIterations: maxIterations,
		windowDays:    windowDays,
		logger:        log.WithFields(map[string]interface{}{"component": "orchestration"}),
		now:           time.Now,
	}
}

// subPlan is one planned entity query plus the rows it produced.
type subPlan struct {
	entity *registry.Entity
	query  *models.StructuredQuery
	rows   []models.Row
	done   bool
}

func (p *Pipeline) Run(ctx context.Context, request string, service dataservice.Service) (*models.QueryResult, error) {
	available, err := service.Discover(ctx)
	if err != nil {
		return nil, err
	}

	plans, err := p.plan(request, available)
	if err != nil {
		return nil, err
	}

	if err := p.execute(ctx, service, plans); err != nil {
		return nil, err
	}

	return &models.QueryResult{Rows: p.correlate(plans)}, nil
}

// plan derives one sub-query per entity the request mentions and the data
// service currently exposes. Mentions are matched on singular and plural
// forms; identifiers and status words are mapped through each entity's
// own declarations.
func (p *Pipeline) plan(request string, available []string) ([]*subPlan, error) {
	exposed := make(map[string]bool, len(available))
	for _, name := range available {
		exposed[strings.ToLower(name)] = true
	}

	present := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(request), -1) {
		present[w] = true
	}

	window := p.window(request)
	var plans []*subPlan
	for i := range p.registry.Entities {
		e := &p.registry.Entities[i]
		if !present[strings.ToLower(e.Name)] && !present[strings.ToLower(e.Singular)] {
			continue
		}
		if len(exposed) > 0 && !exposed[strings.ToLower(e.Name)] {
			p.logger.Warn("entity mentioned but not exposed by data service, skipped", map[string]interface{}{
				"entity": e.Name,
			})
			continue
		}
		plans = append(plans, &subPlan{entity: e, query: p.subQuery(e, request, window)})
	}

	if len(plans) == 0 {
		return nil, apperrors.NewRoutingInternalError("orchestration could not derive any target entity from the request")
	}
	return plans, nil
}

func (p *Pipeline) subQuery(e *registry.Entity, request string, window *models.TimeWindow) *models.StructuredQuery {
	q := &models.StructuredQuery{
		Entity: e.Name,
		Limit:  e.Limit(),
		Window: window,
	}
	for _, m := range identifierRe.FindAllStringSubmatch(request, -1) {
		if key, ok := e.FilterKeyFor(m[1]); ok {
			q.SetFilter(key, m[0])
		}
	}
	for _, w := range wordRe.FindAllString(request, -1) {
		if e.HasStatus(w) {
			q.SetFilter("status", strings.ToUpper(w))
		}
	}
	return q
}

func (p *Pipeline) window(request string) *models.TimeWindow {
	days := p.windowDays
	if m := lastDaysRe.FindStringSubmatch(request); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			days = n
		}
	}
	if days <= 0 {
		return nil
	}
	now := p.now().UTC()
	return &models.TimeWindow{
		From: now.AddDate(0, 0, -days).Truncate(24 * time.Hour),
		To:   now.Truncate(time.Second),
	}
}

// execute runs the planned sub-queries sequentially. A sub-query the
// service rejects for an invalid filter is narrowed to identifier filters
// only and tried again on the next pass; any other failure aborts the run.
func (p *Pipeline) execute(ctx context.Context, service dataservice.Service, plans []*subPlan) error {
	for iteration := 1; iteration <= p.maxIterations; iteration++ {
		pending := 0
		for _, plan := range plans {
			if plan.done {
				continue
			}
			rows, err := service.Query(ctx, plan.query)
			if err != nil {
				if de, ok := dataservice.AsDataError(err); ok && de.Kind == dataservice.ErrKindInvalidFilter && iteration < p.maxIterations {
					p.logger.Warn("sub-query rejected, narrowing filters for re-plan", map[string]interface{}{
						"entity": plan.entity.Name,
						"error":  de.Message,
					})
					plan.query = p.narrow(plan)
					pending++
					continue
				}
				return err
			}
			plan.rows = rows
			plan.done = true
		}
		if pending == 0 {
			break
		}
	}

	for _, plan := range plans {
		if !plan.done {
			return apperrors.NewOrchestrationExhaustedError(
				fmt.Sprintf("sub-query for %s still failing after %d iterations", plan.entity.Name, p.maxIterations), 0)
		}
	}
	return nil
}

// narrow rebuilds a rejected sub-query keeping only the filters declared
// on the entity's identifier mappings.
func (p *Pipeline) narrow(plan *subPlan) *models.StructuredQuery {
	q := &models.StructuredQuery{
		Entity: plan.entity.Name,
		Limit:  plan.entity.Limit(),
		Window: plan.query.Window,
	}
	for key, value := range plan.query.Filters {
		for _, m := range plan.entity.Identifiers {
			if m.FilterKey == key {
				q.SetFilter(key, value)
			}
		}
	}
	return q
}

// correlate merges the per-entity result sets into one combined answer.
// Rows are tagged with their entity; when a secondary entity shares a
// join key with the primary one, its rows are restricted to values seen
// in the primary set.
func (p *Pipeline) correlate(plans []*subPlan) []models.Row {
	primary := plans[0]
	combined := make([]models.Row, 0, len(primary.rows))
	for _, row := range primary.rows {
		combined = append(combined, tag(row, primary.entity.Name))
	}

	for _, plan := range plans[1:] {
		key, shared := registry.SharedJoinKey(primary.entity, plan.entity)
		if !shared {
			for _, row := range plan.rows {
				combined = append(combined, tag(row, plan.entity.Name))
			}
			continue
		}

		seen := make(map[string]bool, len(primary.rows))
		for _, row := range primary.rows {
			if v, ok := row[key]; ok {
				seen[fmt.Sprintf("%v", v)] = true
			}
		}
		for _, row := range plan.rows {
			v, ok := row[key]
			if !ok || seen[fmt.Sprintf("%v", v)] {
				combined = append(combined, tag(row, plan.entity.Name))
			}
		}
	}
	return combined
}

// tag copies a row with its source entity attached, leaving service
// payloads unmutated.
func tag(row models.Row, entity string) models.Row {
	out := make(models.Row, len(row)+1)
	for k, v := range row {
		out[k] = v
	}
	out["_entity"] = entity
	return out
}
