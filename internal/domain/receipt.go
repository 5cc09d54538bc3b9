package domain

import (
	"time"
)

// Known category names. Every line item carries one of these at all times;
// "Unknown" is the default until classification assigns something better.
const (
	CategoryHealthy = "Healthy"
	CategoryJunk    = "Junk"
	CategoryOther   = "Other"
	CategoryUnknown = "Unknown"
)

// KnownCategories lists the fixed category set in display order.
var KnownCategories = []string{CategoryHealthy, CategoryJunk, CategoryOther, CategoryUnknown}

// IsKnownCategory reports whether name is one of the fixed category names.
func IsKnownCategory(name string) bool {
	for _, c := range KnownCategories {
		if c == name {
			return true
		}
	}
	return false
}

// LineItem represents one purchased item on a receipt
type LineItem struct {
	ID          string  `json:"id"`
	ReceiptID   string  `json:"receiptId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"qty"`
	Category    string  `json:"category"`
}

// Amount returns the price-weighted contribution of the item (price x quantity).
func (li LineItem) Amount() float64 {
	return li.Price * float64(li.Quantity)
}

// Receipt represents the structured result of successfully parsing a Document.
// Exactly one Receipt exists per processed Document.
type Receipt struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"documentId"`
	Vendor      string     `json:"vendor"`
	Date        time.Time  `json:"date"`
	Subtotal    float64    `json:"subtotal"`
	Tax         float64    `json:"tax"`
	Total       float64    `json:"total"`
	Currency    string     `json:"currency"`
	HealthScore float64    `json:"healthScore"`
	RawText     string     `json:"rawText,omitempty"`
	IsDegraded  bool       `json:"isDegraded"`
	ProcessedAt time.Time  `json:"processedAt"`
	Items       []LineItem `json:"items,omitempty"`
}

// CategorySummary holds per-category running totals and counts for one receipt.
// Invariant: the four totals sum to the receipt's line items' price x quantity.
type CategorySummary struct {
	ID           string  `json:"id"`
	ReceiptID    string  `json:"receiptId"`
	HealthyTotal float64 `json:"healthyTotal"`
	JunkTotal    float64 `json:"junkTotal"`
	OtherTotal   float64 `json:"otherTotal"`
	UnknownTotal float64 `json:"unknownTotal"`
	HealthyCount int     `json:"healthyCount"`
	JunkCount    int     `json:"junkCount"`
	OtherCount   int     `json:"otherCount"`
	UnknownCount int     `json:"unknownCount"`
}

// Add accumulates one line item into the summary.
func (s *CategorySummary) Add(item LineItem) {
	amount := item.Amount()
	switch item.Category {
	case CategoryHealthy:
		s.HealthyTotal += amount
		s.HealthyCount++
	case CategoryJunk:
		s.JunkTotal += amount
		s.JunkCount++
	case CategoryOther:
		s.OtherTotal += amount
		s.OtherCount++
	default:
		s.UnknownTotal += amount
		s.UnknownCount++
	}
}

// SummarizeCategories aggregates already-categorized line items into a fresh summary.
func SummarizeCategories(items []LineItem) CategorySummary {
	var summary CategorySummary
	for _, item := range items {
		summary.Add(item)
	}
	return summary
}

// ReceiptListEntry is the receipt overview row returned by list queries
type ReceiptListEntry struct {
	Receipt          `json:"receipt"`
	DocumentFileName string           `json:"documentFileName"`
	LineItemCount    int              `json:"lineItemCount"`
	Summary          *CategorySummary `json:"categorySummary,omitempty"`
}

// MonthlySpend is one month's aggregate for the monthly-spend analytics endpoint
type MonthlySpend struct {
	Month          int     `json:"month"`
	Total          float64 `json:"total"`
	ReceiptCount   int     `json:"receiptCount"`
	AvgHealthScore float64 `json:"avgHealthScore"`
}

// CategoryBreakdown is one category's aggregate across all receipts
type CategoryBreakdown struct {
	Category  string  `json:"category"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}
