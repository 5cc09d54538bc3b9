// Package parser turns raw receipt text into a structured receipt header and
// line items.
package parser

import (
	"context"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// Parser extracts a receipt header and an unordered list of line items from
// raw text. Implementations favor availability over strict correctness: a
// parse that cannot produce structured data still returns a best-effort
// receipt (vendor unknown, totals zero, no items) flagged IsDegraded rather
// than an error. The returned line items carry category Unknown.
type Parser interface {
	Parse(ctx context.Context, text string) (*domain.Receipt, []domain.LineItem, error)
}
