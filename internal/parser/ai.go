package parser

import (
	"context"
	"log"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/openrouter"
)

// AIParser asks the OpenRouter model for a structured parse and falls back to
// the heuristic parser when the model fails or returns garbage. The fallback
// keeps the pipeline available: an AI outage degrades parse quality, it does
// not fail documents.
type AIParser struct {
	client   *openrouter.Client
	fallback Parser
}

// NewAIParser creates a parser backed by the OpenRouter client with the given
// fallback. A nil fallback defaults to the heuristic parser.
func NewAIParser(client *openrouter.Client, fallback Parser) *AIParser {
	if fallback == nil {
		fallback = NewHeuristicParser()
	}
	return &AIParser{client: client, fallback: fallback}
}

// Parse extracts receipt structure via the model, falling back on any fault.
func (p *AIParser) Parse(ctx context.Context, text string) (*domain.Receipt, []domain.LineItem, error) {
	receipt, items, err := p.client.ParseReceipt(ctx, text)
	if err != nil {
		log.Printf("AI parse failed, falling back to heuristic parser: %v", err)
		return p.fallback.Parse(ctx, text)
	}
	if receipt.Vendor == "" {
		receipt.Vendor = "Unknown"
	}
	return receipt, items, nil
}
