package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

var (
	dateRe     = regexp.MustCompile(`(?i)date[:\s]+(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{2,4})`)
	totalRe    = regexp.MustCompile(`(?im)^\s*total[:\s]+[$€]?(\d+\.\d{2})`)
	subtotalRe = regexp.MustCompile(`(?im)^\s*sub\s*total[:\s]+[$€]?(\d+\.\d{2})`)
	taxRe      = regexp.MustCompile(`(?im)^\s*(?:tax|mwst|vat)[:\s]+[$€]?(\d+\.\d{2})`)
	lineItemRe = regexp.MustCompile(`^(.+?)\s+[$€]?(\d+\.\d{2})$`)
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "1/2/06", "1-2-2006", "1-2-06"}

// HeuristicParser is the regex-based reference parser. It never returns an
// error: text with no recognizable structure yields a degraded zero-totals
// receipt with an empty item list.
type HeuristicParser struct{}

// NewHeuristicParser creates the rule-based parser.
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{}
}

// Parse extracts the vendor, date, totals and line items from receipt text.
func (p *HeuristicParser) Parse(_ context.Context, text string) (*domain.Receipt, []domain.LineItem, error) {
	receipt := &domain.Receipt{
		Vendor:   "Unknown",
		Currency: detectCurrency(text),
		RawText:  text,
	}

	lines := splitLines(text)
	if len(lines) > 0 {
		receipt.Vendor = lines[0]
	}

	if m := dateRe.FindStringSubmatch(text); m != nil {
		for _, layout := range dateLayouts {
			if date, err := time.Parse(layout, m[1]); err == nil {
				receipt.Date = date
				break
			}
		}
	}
	if receipt.Date.IsZero() {
		receipt.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	receipt.Total = matchAmount(totalRe, text)
	receipt.Subtotal = matchAmount(subtotalRe, text)
	receipt.Tax = matchAmount(taxRe, text)

	var items []domain.LineItem
	for _, line := range lines {
		if skipLine(line) {
			continue
		}
		m := lineItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[1])
		if len(description) < 3 {
			continue
		}
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		items = append(items, domain.LineItem{
			Description: description,
			Price:       price,
			Quantity:    1,
			Category:    domain.CategoryUnknown,
		})
	}

	// A garbled scan that produced neither items nor a total is still a
	// receipt, but downstream consumers get to know it carries no signal.
	if len(items) == 0 && receipt.Total == 0 {
		receipt.IsDegraded = true
	}

	return receipt, items, nil
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// skipLine filters header/footer lines that would otherwise match the
// line-item pattern.
func skipLine(line string) bool {
	if len(line) < 5 {
		return true
	}
	lower := strings.ToLower(line)
	for _, keyword := range []string{"date:", "total", "subtotal", "tax", "mwst", "vat", "change", "cash", "card"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func matchAmount(re *regexp.Regexp, text string) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return amount
}

func detectCurrency(text string) string {
	if strings.ContainsRune(text, '€') {
		return "EUR"
	}
	return "USD"
}
