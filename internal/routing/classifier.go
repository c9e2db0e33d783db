// internal/routing/classifier.go
package routing

import (
	"regexp"
	"sort"
	"strings"

	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/pkg/registry"
)

// Classification reasons that do not come from the signal-pattern table.
const (
	ReasonSingleEntity       = "single-entity"
	ReasonMultipleEntities   = "multiple-entities"
	ReasonMultiConjunction   = "multi-entity-conjunction"
	ReasonEntityWithFollowup = "single-entity-with-followup"
)

// Classifier maps request text to a routing decision. It is a pure
// function of the text, the signal-pattern table and the entity registry:
// no state, no randomness, same input always yields the same result.
type Classifier struct {
	registry *registry.EntityRegistry
	patterns []SignalPattern
}

// NewClassifier compiles the given pattern table. The entity set comes
// from the registry so new data products are picked up without code
// changes. Invalid pattern expressions panic; the table is static input
// and a broken entry is a programming error.
func NewClassifier(reg *registry.EntityRegistry, patterns []SignalPattern) *Classifier {
	compiled := make([]SignalPattern, len(patterns))
	for i, p := range patterns {
		p.re = regexp.MustCompile("(?i)" + p.Expr)
		compiled[i] = p
	}
	return &Classifier{registry: reg, patterns: compiled}
}

// Patterns returns the compiled table, so tests can enumerate exactly
// which signals exist.
func (c *Classifier) Patterns() []SignalPattern {
	return c.patterns
}

// Classify produces the routing decision for non-empty request text.
// Signal patterns take strict precedence over entity counting; the
// "and list" followup shape is the only carve-out that can pull an
// apparent multi-action request back to the fast path.
func (c *Classifier) Classify(text string) models.ClassificationResult {
	normalized := strings.ToLower(strings.TrimSpace(text))
	hits := c.patternHits(normalized)

	if len(hits) > 0 {
		return models.ClassificationResult{
			IsSimple: false,
			Score:    score(len(hits), 0),
			Entities: nil, // entity counting is skipped once a signal fires
			Reason:   hits[0].Reason,
		}
	}

	if andListRe.MatchString(normalized) {
		if entity, ok := c.followupTarget(normalized); ok {
			return models.ClassificationResult{
				IsSimple: true,
				Score:    0,
				Entities: []string{entity},
				Reason:   ReasonEntityWithFollowup,
			}
		}
		return models.ClassificationResult{
			IsSimple: false,
			Score:    score(1, 0),
			Entities: nil,
			Reason:   ReasonMultiConjunction,
		}
	}

	entities := c.matchedEntities(normalized)
	if len(entities) > 1 {
		return models.ClassificationResult{
			IsSimple: false,
			Score:    score(0, len(entities)),
			Entities: entities,
			Reason:   ReasonMultipleEntities,
		}
	}
	return models.ClassificationResult{
		IsSimple: true,
		Score:    0,
		Entities: entities,
		Reason:   ReasonSingleEntity,
	}
}

func (c *Classifier) patternHits(normalized string) []SignalPattern {
	var hits []SignalPattern
	for _, p := range c.patterns {
		if p.re.MatchString(normalized) {
			hits = append(hits, p)
		}
	}
	return hits
}

// followupTarget checks the narrow "<verb> <entity> <identifier> and list
// its <related>" shape. Both the subject and the followup must be known
// entities; the subject (with its identifier) is the query target.
func (c *Classifier) followupTarget(normalized string) (string, bool) {
	m := followupShapeRe.FindStringSubmatch(normalized)
	if m == nil {
		return "", false
	}
	subject, ok := c.registry.Lookup(m[2])
	if !ok {
		return "", false
	}
	if _, ok := c.registry.Lookup(m[4]); !ok {
		return "", false
	}
	return subject.Name, true
}

// matchedEntities scans for entity mentions, singular or plural. Mentions
// only count when the text contains an indicator verb, so an entity name
// appearing as a filter value does not inflate the count.
func (c *Classifier) matchedEntities(normalized string) []string {
	words := wordRe.FindAllString(normalized, -1)
	hasIndicator := false
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
		if indicatorVerbs[w] {
			hasIndicator = true
		}
	}
	if !hasIndicator {
		return nil
	}

	var matched []string
	for _, e := range c.registry.Entities {
		if present[strings.ToLower(e.Name)] || present[strings.ToLower(e.Singular)] {
			matched = append(matched, e.Name)
		}
	}
	sort.Strings(matched)
	return matched
}

// score folds pattern hits and entity-count overage into [0,1]. The value
// is observability only; the binary decision never reads it.
func score(patternHits, entityCount int) float64 {
	s := 0.4 * float64(patternHits)
	if entityCount > 1 {
		s += 0.3 * float64(entityCount-1)
	}
	if s > 1 {
		return 1
	}
	return s
}
