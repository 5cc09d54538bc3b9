// Package health computes the 0-100 health score for a receipt's spending mix.
package health

import (
	"math"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// NeutralScore is returned when the line items carry no healthy/junk signal.
const NeutralScore = 50.0

// categoryWeight returns the signed per-currency-unit weight for a category.
// Healthy spending pulls the score up, junk spending pulls it down, and
// everything else is neutral.
func categoryWeight(category string) float64 {
	switch category {
	case domain.CategoryHealthy:
		return 1
	case domain.CategoryJunk:
		return -1
	default:
		return 0
	}
}

// Score converts categorized, priced line items into a single score in [0, 100].
// Spending is weighted by money spent, not item count: all-junk spending maps to
// 0, all-healthy to 100, and a receipt with no healthy/junk signal to the
// neutral 50. The result is rounded to two decimal places.
//
// Pure function; deterministic; no I/O. Whenever a line item's category is
// corrected after the fact, the caller must re-run Score over the receipt's full
// current item set and overwrite the stored value.
func Score(items []domain.LineItem) float64 {
	if len(items) == 0 {
		return NeutralScore
	}

	var weightedSum, totalWeight float64
	for _, item := range items {
		weight := categoryWeight(item.Category)
		amount := item.Amount()
		weightedSum += weight * amount
		totalWeight += math.Abs(weight) * amount
	}

	if totalWeight == 0 {
		return NeutralScore
	}

	score := (weightedSum + totalWeight) / (2 * totalWeight) * 100
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*100) / 100
}
