package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const classifyPromptTemplate = `Categorize ALL of these %d grocery items into ONE of these categories: %s

Category guidelines:
- Healthy: fresh produce, vegetables, fruits, whole grains, yogurt, kefir, salads, lean proteins, organic items
- Junk: candy, chocolate, chips, cookies, soda, ice cream, highly processed snacks, sugary drinks
- Other: bread, pasta, rice, basic staples, bottle deposits (Pfand), household items
- Unknown: anything you cannot place

Items to categorize:
%s

IMPORTANT RULES:
1. Categorize EVERY SINGLE ITEM - all %d items must have a category
2. Recognize language automatically (English, German, Italian, French, etc.)
3. Use ONLY the listed categories
4. Return ONLY a JSON array with %d entries, order matching the numbered list exactly
5. No explanations, no markdown, just the JSON array

Example response format:
["Healthy", "Junk", "Other", "Healthy"]`

// CategorizeBatch asks the model to assign one category per description. The
// returned slice always has the same cardinality and order as the input; a
// response with the wrong length or an unknown category name is an error.
func (c *Client) CategorizeBatch(ctx context.Context, descriptions, allowedCategories []string) ([]string, error) {
	if len(descriptions) == 0 {
		return []string{}, nil
	}

	var itemsList strings.Builder
	for i, description := range descriptions {
		fmt.Fprintf(&itemsList, "%d. %s\n", i+1, description)
	}

	prompt := fmt.Sprintf(classifyPromptTemplate,
		len(descriptions), strings.Join(allowedCategories, ", "),
		itemsList.String(), len(descriptions), len(descriptions))

	content, err := c.chatCompletion(ctx, []message{textMessage("user", prompt)})
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &categories); err != nil {
		return nil, &OpenRouterError{
			Op:  "parse_categories_json",
			Err: fmt.Errorf("model returned malformed JSON: %w", err),
		}
	}
	if len(categories) != len(descriptions) {
		return nil, &OpenRouterError{
			Op:  "check_categories_cardinality",
			Err: fmt.Errorf("model returned %d categories, expected %d", len(categories), len(descriptions)),
		}
	}

	allowed := make(map[string]string, len(allowedCategories))
	for _, name := range allowedCategories {
		allowed[strings.ToLower(name)] = name
	}
	for i, category := range categories {
		name, ok := allowed[strings.ToLower(strings.TrimSpace(category))]
		if !ok {
			return nil, &OpenRouterError{
				Op:  "check_category_name",
				Err: fmt.Errorf("model returned unknown category %q", category),
			}
		}
		categories[i] = name
	}

	return categories, nil
}
