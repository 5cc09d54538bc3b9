package classify

import (
	"context"
	"log"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/openrouter"
)

// ExternalClassifier delegates categorization to the OpenRouter model. It
// honors the same batch-cardinality contract as the keyword table: the client
// rejects any response whose length or category names do not match, so a
// malformed model reply surfaces here as an error, never as a partial result.
type ExternalClassifier struct {
	client *openrouter.Client
}

// NewExternalClassifier creates a classifier backed by the given client.
func NewExternalClassifier(client *openrouter.Client) *ExternalClassifier {
	return &ExternalClassifier{client: client}
}

// Categorize classifies a single description. Backend faults degrade to
// Unknown rather than failing the caller.
func (c *ExternalClassifier) Categorize(ctx context.Context, description, vendor string) (string, error) {
	categories, err := c.client.CategorizeBatch(ctx, []string{description}, domain.KnownCategories)
	if err != nil {
		log.Printf("external classifier fault for %q, defaulting to Unknown: %v", description, err)
		return domain.CategoryUnknown, nil
	}
	return categories[0], nil
}

// CategorizeBatch classifies all descriptions in one model call.
func (c *ExternalClassifier) CategorizeBatch(ctx context.Context, descriptions []string) ([]string, error) {
	categories, err := c.client.CategorizeBatch(ctx, descriptions, domain.KnownCategories)
	if err != nil {
		return nil, &ClassifierError{Op: "categorize_batch", Err: err}
	}
	return categories, nil
}
