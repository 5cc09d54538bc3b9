package repository

import (
	"context"
	"fmt"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// GetMonthlySpend retrieves per-month totals and average health score for a year
func (r *PostgresReceiptRepository) GetMonthlySpend(ctx context.Context, year int) ([]domain.MonthlySpend, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			EXTRACT(MONTH FROM date)::int as month,
			COALESCE(SUM(total), 0) as total,
			COUNT(*) as receipt_count,
			COALESCE(AVG(health_score), 0) as avg_health_score
		FROM receipts
		WHERE EXTRACT(YEAR FROM date) = $1
		GROUP BY month
		ORDER BY month
	`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly spend: %w", err)
	}
	defer rows.Close()

	months := []domain.MonthlySpend{}
	for rows.Next() {
		var m domain.MonthlySpend
		if err := rows.Scan(&m.Month, &m.Total, &m.ReceiptCount, &m.AvgHealthScore); err != nil {
			return nil, fmt.Errorf("failed to scan monthly spend: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly spend: %w", err)
	}
	return months, nil
}

// GetCategoryBreakdown retrieves aggregate per-category totals across all receipts
func (r *PostgresReceiptRepository) GetCategoryBreakdown(ctx context.Context) ([]domain.CategoryBreakdown, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			li.category,
			COALESCE(SUM(li.qty * li.price), 0) as total,
			COUNT(*) as item_count
		FROM line_items li
		GROUP BY li.category
		ORDER BY total DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := []domain.CategoryBreakdown{}
	for rows.Next() {
		var c domain.CategoryBreakdown
		if err := rows.Scan(&c.Category, &c.Total, &c.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan category breakdown: %w", err)
		}
		breakdown = append(breakdown, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category breakdown: %w", err)
	}
	return breakdown, nil
}
