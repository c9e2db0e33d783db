// internal/routing/classifier_test.go
package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecom-query-gateway/internal/models"
	"telecom-query-gateway/pkg/registry"
)

const testRegistryDoc = `{
  "version": "test",
  "entities": [
    {
      "name": "payments",
      "singular": "payment",
      "filters": ["payment_id", "account_id", "bill_id", "status"],
      "identifiers": [
        {"prefix": "ACC", "filterKey": "account_id"},
        {"prefix": "BILL", "filterKey": "bill_id"}
      ],
      "statusValues": ["POSTED", "FAILED", "PENDING"],
      "joinKeys": ["account_id", "bill_id"]
    },
    {
      "name": "bills",
      "singular": "bill",
      "filters": ["bill_id", "account_id", "status"],
      "identifiers": [
        {"prefix": "BILL", "filterKey": "bill_id"},
        {"prefix": "ACC", "filterKey": "account_id"}
      ],
      "statusValues": ["OPEN", "CLOSED", "OVERDUE"],
      "joinKeys": ["bill_id", "account_id"]
    },
    {
      "name": "customers",
      "singular": "customer",
      "filters": ["customer_id", "status"],
      "identifiers": [{"prefix": "CUST", "filterKey": "customer_id"}],
      "joinKeys": ["customer_id"]
    }
  ]
}`

func testRegistry(t *testing.T) *registry.EntityRegistry {
	t.Helper()
	reg, err := registry.Parse([]byte(testRegistryDoc))
	require.NoError(t, err)
	return reg
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(testRegistry(t), DefaultSignalPatterns())
}

func TestClassify_RoutingDecisions(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name       string
		text       string
		wantSimple bool
		wantReason string
		wantEnts   []string
	}{
		{
			name:       "single entity with identifier",
			text:       "show me payments for ACC-1002",
			wantSimple: true,
			wantReason: ReasonSingleEntity,
			wantEnts:   []string{"payments"},
		},
		{
			name:       "single entity with status and window",
			text:       "list failed payments from the last 60 days",
			wantSimple: true,
			wantReason: ReasonSingleEntity,
			wantEnts:   []string{"payments"},
		},
		{
			name:       "two entities",
			text:       "show me all customers and their payments",
			wantSimple: false,
			wantReason: ReasonMultipleEntities,
			wantEnts:   []string{"customers", "payments"},
		},
		{
			name:       "conjunction quantifier signal",
			text:       "show payments and all the bills",
			wantSimple: false,
			wantReason: "conjunction-quantifier",
		},
		{
			name:       "comparison language",
			text:       "compare bills across accounts",
			wantSimple: false,
			wantReason: "comparison-language",
		},
		{
			name:       "aggregation language",
			text:       "total payments per customer",
			wantSimple: false,
			wantReason: "aggregation-language",
		},
		{
			name:       "relationship language",
			text:       "payments linked to overdue bills",
			wantSimple: false,
			wantReason: "relationship-language",
		},
		{
			name:       "analysis language",
			text:       "analyze payment trends",
			wantSimple: false,
			wantReason: "analysis-language",
		},
		{
			name:       "explicit complexity",
			text:       "give me a detailed breakdown of bills",
			wantSimple: false,
			wantReason: "explicit-complexity",
		},
		{
			name:       "followup shape stays fast",
			text:       "get bill BILL-9001 and list its payments",
			wantSimple: true,
			wantReason: ReasonEntityWithFollowup,
			wantEnts:   []string{"bills"},
		},
		{
			name:       "and-list without followup shape",
			text:       "show me customers and list payments",
			wantSimple: false,
			wantReason: ReasonMultiConjunction,
		},
		{
			name:       "no known entity",
			text:       "show me the weather",
			wantSimple: true,
			wantReason: ReasonSingleEntity,
			wantEnts:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.wantSimple, got.IsSimple, "IsSimple")
			assert.Equal(t, tt.wantReason, got.Reason, "Reason")
			if tt.wantEnts != nil {
				assert.Equal(t, tt.wantEnts, got.Entities)
			}
		})
	}
}

func TestClassify_PatternsShortCircuitEntityCounting(t *testing.T) {
	c := newTestClassifier(t)

	// Mentions two entities AND a comparison signal; the signal decides
	// and entity counting is skipped entirely.
	got := c.Classify("compare customers versus payments")
	assert.False(t, got.IsSimple)
	assert.Equal(t, "comparison-language", got.Reason)
	assert.Nil(t, got.Entities)
}

func TestClassify_FollowupShapeRequiresKnownEntities(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name string
		text string
	}{
		{name: "unknown subject", text: "get invoice INV-1 and list its payments"},
		{name: "unknown followup", text: "get bill BILL-9001 and list its widgets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.False(t, got.IsSimple)
			assert.Equal(t, ReasonMultiConjunction, got.Reason)
		})
	}
}

func TestClassify_EntityMentionsNeedIndicatorVerb(t *testing.T) {
	c := newTestClassifier(t)

	// Entity words present but nothing asks for data; no mentions count.
	got := c.Classify("payments bills")
	assert.True(t, got.IsSimple)
	assert.Empty(t, got.Entities)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newTestClassifier(t)

	texts := []string{
		"show me payments for ACC-1002",
		"compare bills and payments",
		"get bill BILL-9001 and list its payments",
	}
	for _, text := range texts {
		first := c.Classify(text)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Classify(text), "classification must be deterministic for %q", text)
		}
	}
}

func TestClassify_CaseAndWhitespaceInsensitive(t *testing.T) {
	c := newTestClassifier(t)

	a := c.Classify("show me payments for ACC-1002")
	b := c.Classify("  SHOW ME PAYMENTS FOR ACC-1002  ")
	assert.Equal(t, a.IsSimple, b.IsSimple)
	assert.Equal(t, a.Reason, b.Reason)
	assert.Equal(t, a.Entities, b.Entities)
}

func TestClassify_ScoreStaysInRange(t *testing.T) {
	c := newTestClassifier(t)

	texts := []string{
		"show payments",
		"compare and analyze the total detailed relationship of bills versus payments",
		"show customers and payments and bills",
	}
	for _, text := range texts {
		got := c.Classify(text)
		assert.GreaterOrEqual(t, got.Score, 0.0)
		assert.LessOrEqual(t, got.Score, 1.0)
	}
}

func TestDefaultSignalPatterns_TableIsInspectable(t *testing.T) {
	c := newTestClassifier(t)

	patterns := c.Patterns()
	require.NotEmpty(t, patterns)

	seen := make(map[string]bool)
	for _, p := range patterns {
		assert.NotEmpty(t, p.Class)
		assert.NotEmpty(t, p.Reason)
		assert.NotEmpty(t, p.Expr)
		assert.False(t, seen[p.Reason], "pattern reasons must be unique: %s", p.Reason)
		seen[p.Reason] = true
	}
}

func TestClassify_ResultShape(t *testing.T) {
	c := newTestClassifier(t)

	got := c.Classify("show me all customers and their payments")
	want := models.ClassificationResult{
		IsSimple: false,
		Score:    0.3,
		Entities: []string{"customers", "payments"},
		Reason:   ReasonMultipleEntities,
	}
	assert.Equal(t, want, got)
}
