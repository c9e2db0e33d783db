// internal/agents/fast-query/extract.go
package fastquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/pkg/registry"
)

var (
	// identifierRe matches ID shapes like ACC-1002 or BILL-9001: a short
	// alphabetic tag, a dash, then an alphanumeric code.
	identifierRe = regexp.MustCompile(`\b([A-Za-z]{2,8})-([A-Za-z0-9]+)\b`)

	lastDaysRe = regexp.MustCompile(`(?i)\blast\s+(\d+)\s*days?\b`)

	wordRe = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// buildQuery turns the request text into the single structured query the
// fast path issues. now anchors relative time phrases.
//
// Identifier filters always use the key the target entity declares for
// the prefix, so an account code supplied on a bills question lands on
// the column bills actually has. Prefixes the entity does not declare are
// dropped; droppedPrefixes reports them so the handler can log.
func buildQuery(entity *registry.Entity, text string, now time.Time, defaultWindowDays int) (*models.StructuredQuery, []string) {
	q := &models.StructuredQuery{
		Entity: entity.Name,
		Limit:  entity.Limit(),
	}

	var dropped []string
	for _, m := range identifierRe.FindAllStringSubmatch(text, -1) {
		key, ok := entity.FilterKeyFor(m[1])
		if !ok {
			dropped = append(dropped, strings.ToUpper(m[1]))
			continue
		}
		q.SetFilter(key, m[0])
	}

	for _, w := range wordRe.FindAllString(text, -1) {
		if entity.HasStatus(w) {
			q.SetFilter("status", strings.ToUpper(w))
		}
	}

	q.Window = timeWindow(text, now, defaultWindowDays)
	return q, dropped
}

// timeWindow converts "last N days" to an absolute UTC pair: from at
// midnight N days back, to at the current second. Without the phrase the
// configured default window applies; a non-positive default means none.
func timeWindow(text string, now time.Time, defaultDays int) *models.TimeWindow {
	days := defaultDays
	if m := lastDaysRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			days = n
		}
	}
	if days <= 0 {
		return nil
	}
	now = now.UTC()
	from := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
	return &models.TimeWindow{
		From: from,
		To:   now.Truncate(time.Second),
	}
}

// deriveEntity re-runs the entity keyword scan when classification did not
// carry one. Unlike the classifier it does not require an indicator verb:
// by the time a request reaches this handler the routing decision is made.
func deriveEntity(reg *registry.EntityRegistry, text string) []*registry.Entity {
	present := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		present[w] = true
	}

	var matched []*registry.Entity
	for i := range reg.Entities {
		e := &reg.Entities[i]
		if present[strings.ToLower(e.Name)] || present[strings.ToLower(e.Singular)] {
			matched = append(matched, e)
		}
	}
	return matched
}
