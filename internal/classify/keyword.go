package classify

import (
	"context"
	"strings"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// keywordRule maps a case-insensitive substring to a category. Rules are kept
// in an ordered slice so multi-word keywords ("ice cream") win over any
// shorter rule added later, and matching is deterministic.
type keywordRule struct {
	keyword  string
	category string
}

// defaultRules covers common grocery vocabulary in English plus the German and
// Italian terms that show up on European receipts (Pfand deposits, produce).
var defaultRules = []keywordRule{
	// Healthy
	{"ice cream", domain.CategoryJunk}, // before "cream" style partial matches
	{"salad", domain.CategoryHealthy},
	{"vegetable", domain.CategoryHealthy},
	{"fruit", domain.CategoryHealthy},
	{"oats", domain.CategoryHealthy},
	{"yogurt", domain.CategoryHealthy},
	{"joghurt", domain.CategoryHealthy},
	{"kefir", domain.CategoryHealthy},
	{"banana", domain.CategoryHealthy},
	{"banane", domain.CategoryHealthy},
	{"apple", domain.CategoryHealthy},
	{"apfel", domain.CategoryHealthy},
	{"mela", domain.CategoryHealthy},
	{"orange", domain.CategoryHealthy},
	{"spinach", domain.CategoryHealthy},
	{"spinat", domain.CategoryHealthy},
	{"broccoli", domain.CategoryHealthy},
	{"tomato", domain.CategoryHealthy},
	{"tomate", domain.CategoryHealthy},
	{"gemuese", domain.CategoryHealthy},
	{"gemüse", domain.CategoryHealthy},
	{"obst", domain.CategoryHealthy},
	{"insalata", domain.CategoryHealthy},
	{"verdura", domain.CategoryHealthy},
	{"organic", domain.CategoryHealthy},
	{"bio ", domain.CategoryHealthy},

	// Junk
	{"chips", domain.CategoryJunk},
	{"soda", domain.CategoryJunk},
	{"cola", domain.CategoryJunk},
	{"candy", domain.CategoryJunk},
	{"chocolate", domain.CategoryJunk},
	{"schokolade", domain.CategoryJunk},
	{"cioccolato", domain.CategoryJunk},
	{"cookie", domain.CategoryJunk},
	{"keks", domain.CategoryJunk},
	{"cake", domain.CategoryJunk},
	{"kuchen", domain.CategoryJunk},
	{"donut", domain.CategoryJunk},
	{"gummi", domain.CategoryJunk},
	{"bonbon", domain.CategoryJunk},
	{"caramelle", domain.CategoryJunk},

	// Other (neutral staples, deposits, household)
	{"water", domain.CategoryOther},
	{"wasser", domain.CategoryOther},
	{"acqua", domain.CategoryOther},
	{"milk", domain.CategoryOther},
	{"milch", domain.CategoryOther},
	{"latte", domain.CategoryOther},
	{"bread", domain.CategoryOther},
	{"brot", domain.CategoryOther},
	{"pane", domain.CategoryOther},
	{"rice", domain.CategoryOther},
	{"reis", domain.CategoryOther},
	{"riso", domain.CategoryOther},
	{"pasta", domain.CategoryOther},
	{"pfand", domain.CategoryOther},
}

// KeywordClassifier is the deterministic rule-table classifier: case-insensitive
// substring match over a static keyword table, first match wins, unmatched
// descriptions default to Unknown. It is the reference implementation the
// AI-backed classifier is measured against.
type KeywordClassifier struct {
	rules []keywordRule
}

// NewKeywordClassifier creates a classifier over the built-in rule table.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultRules}
}

// Categorize assigns a single description to a category. The vendor hint is
// accepted for interface compatibility; the rule table does not use it.
func (c *KeywordClassifier) Categorize(_ context.Context, description, _ string) (string, error) {
	lower := strings.ToLower(description)
	for _, rule := range c.rules {
		if strings.Contains(lower, rule.keyword) {
			return rule.category, nil
		}
	}
	return domain.CategoryUnknown, nil
}

// CategorizeBatch categorizes each description independently. The result always has
// the same cardinality and order as the input; the keyword table cannot fail.
func (c *KeywordClassifier) CategorizeBatch(ctx context.Context, descriptions []string) ([]string, error) {
	categories := make([]string, len(descriptions))
	for i, description := range descriptions {
		category, _ := c.Categorize(ctx, description, "")
		categories[i] = category
	}
	return categories, nil
}
