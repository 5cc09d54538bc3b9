package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

const parsePrompt = `You are a grocery receipt parsing assistant. Extract the following from the receipt text:
- Vendor name
- Purchase date (YYYY-MM-DD)
- Line items (description, unit price, quantity)
- Subtotal, tax and total amounts
- Currency code (ISO 4217, default "USD")

Format your response as a valid JSON object with this structure:
{
  "vendor": "...",
  "date": "YYYY-MM-DD",
  "subtotal": 0.0,
  "tax": 0.0,
  "total": 0.0,
  "currency": "USD",
  "items": [
    {"description": "...", "price": 0.0, "qty": 1}
  ]
}

Do not include any other text in your response, only provide the JSON.`

// ParseReceipt extracts a structured receipt header and line items from raw
// receipt text. The returned line items carry no category yet.
func (c *Client) ParseReceipt(ctx context.Context, text string) (*domain.Receipt, []domain.LineItem, error) {
	content, err := c.chatCompletion(ctx, []message{
		textMessage("system", parsePrompt),
		textMessage("user", "Extract the data from this receipt text:\n\n"+text),
	})
	if err != nil {
		return nil, nil, err
	}

	var dto struct {
		Vendor   string  `json:"vendor"`
		Date     string  `json:"date"`
		Subtotal float64 `json:"subtotal"`
		Tax      float64 `json:"tax"`
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
		Items    []struct {
			Description string  `json:"description"`
			Price       float64 `json:"price"`
			Qty         float64 `json:"qty"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &dto); err != nil {
		return nil, nil, &OpenRouterError{
			Op:  "parse_receipt_json",
			Err: fmt.Errorf("model returned malformed JSON: %w", err),
		}
	}

	receipt := &domain.Receipt{
		Vendor:   dto.Vendor,
		Subtotal: dto.Subtotal,
		Tax:      dto.Tax,
		Total:    dto.Total,
		Currency: dto.Currency,
		RawText:  text,
	}
	if receipt.Currency == "" {
		receipt.Currency = "USD"
	}
	if dto.Date != "" {
		if date, err := time.Parse("2006-01-02", dto.Date); err == nil {
			receipt.Date = date
		}
	}
	if receipt.Date.IsZero() {
		receipt.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	items := make([]domain.LineItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		qty := int(it.Qty)
		if qty <= 0 {
			qty = 1
		}
		items = append(items, domain.LineItem{
			Description: it.Description,
			Price:       it.Price,
			Quantity:    qty,
			Category:    domain.CategoryUnknown,
		})
	}

	return receipt, items, nil
}
