// internal/routing/patterns.go
package routing

import "regexp"

// SignalPattern marks request text as complex when its expression matches.
// The table is ordered; the first match decides and names the reason.
type SignalPattern struct {
	Class  string // pattern family, used in logs and tests
	Reason string // classification reason reported to callers
	Expr   string // case-insensitive regular expression

	re *regexp.Regexp
}

// DefaultSignalPatterns returns the built-in complex-signal table. Callers
// may extend or replace it; NewClassifier compiles whatever it is given.
func DefaultSignalPatterns() []SignalPattern {
	return []SignalPattern{
		{
			Class:  "conjunction",
			Reason: "conjunction-quantifier",
			Expr:   `\b(and|or|with|including|also|additionally)\s+(me|all|the)\b`,
		},
		{
			Class:  "comparison",
			Reason: "comparison-language",
			Expr:   `\b(compare|comparison|versus|vs)\b`,
		},
		{
			Class:  "aggregation",
			Reason: "aggregation-language",
			Expr:   `\b(aggregate|sum|total|count|average|max|min)\b`,
		},
		{
			Class:  "relationship",
			Reason: "relationship-language",
			Expr:   `\b(relationship|related|associated|linked)\b`,
		},
		{
			Class:  "analysis",
			Reason: "analysis-language",
			Expr:   `\b(analyze|analysis|insight|pattern|trend)\b`,
		},
		{
			Class:  "explicit-complexity",
			Reason: "explicit-complexity",
			Expr:   `\b(complex|detailed|comprehensive|complete)\b`,
		},
	}
}

var (
	// andList triggers the single-entity-with-followup carve-out check.
	andListRe = regexp.MustCompile(`(?i)\band\s+list\b`)

	// followupShape is the narrow "<verb> <entity> <identifier> and list
	// its <related-entity>" form that stays on the fast path.
	followupShapeRe = regexp.MustCompile(
		`(?i)^\s*(get|show|find|display|fetch)\s+(?:me\s+)?([a-z]+)\s+([a-z]{2,8}-[a-z0-9]+)\s+and\s+list\s+(?:its\s+|the\s+|their\s+)?([a-z]+)\s*[?.!]?\s*$`)

	// indicatorVerbs gate entity counting: an entity name only counts as a
	// query subject when the request actually asks for data.
	indicatorVerbs = map[string]bool{
		"show": true, "list": true, "get": true, "find": true, "display": true,
	}

	wordRe = regexp.MustCompile(`[a-z0-9]+`)
)
