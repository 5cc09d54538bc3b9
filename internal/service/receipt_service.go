package service

import (
	"context"
	"fmt"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/health"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
)

// ReceiptServiceError represents an error in the receipt service
type ReceiptServiceError struct {
	Op  string
	Err error
}

func (e *ReceiptServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ReceiptServiceError) Unwrap() error {
	return e.Err
}

// ReceiptService defines the read, correction, and analytics operations over
// processed receipts.
type ReceiptService interface {
	GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, *domain.CategorySummary, error)
	ListReceipts(ctx context.Context) ([]domain.ReceiptListEntry, error)
	DeleteReceipt(ctx context.Context, receiptID string) error
	CorrectItemCategory(ctx context.Context, receiptID, itemID, category string) (*domain.Receipt, *domain.CategorySummary, error)

	// Analytics operations
	GetMonthlySpend(ctx context.Context, year int) ([]domain.MonthlySpend, error)
	GetCategoryBreakdown(ctx context.Context) ([]domain.CategoryBreakdown, error)
}

// ReceiptServiceImpl implements the ReceiptService interface
type ReceiptServiceImpl struct {
	repository repository.ReceiptRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(repo repository.ReceiptRepository) ReceiptService {
	return &ReceiptServiceImpl{
		repository: repo,
	}
}

// GetReceiptByID retrieves a receipt with its line items and category summary
func (s *ReceiptServiceImpl) GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, *domain.CategorySummary, error) {
	receipt, summary, err := s.repository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, nil, &ReceiptServiceError{
			Op:  "get_receipt",
			Err: err,
		}
	}
	return receipt, summary, nil
}

// ListReceipts retrieves receipt overview rows
func (s *ReceiptServiceImpl) ListReceipts(ctx context.Context) ([]domain.ReceiptListEntry, error) {
	receipts, err := s.repository.ListReceipts(ctx)
	if err != nil {
		return nil, &ReceiptServiceError{
			Op:  "list_receipts",
			Err: err,
		}
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt along with its owning document
func (s *ReceiptServiceImpl) DeleteReceipt(ctx context.Context, receiptID string) error {
	if err := s.repository.DeleteReceipt(ctx, receiptID); err != nil {
		return &ReceiptServiceError{
			Op:  "delete_receipt",
			Err: err,
		}
	}
	return nil
}

// CorrectItemCategory reassigns one line item's category and returns the
// receipt with its recomputed summary and health score.
func (s *ReceiptServiceImpl) CorrectItemCategory(ctx context.Context, receiptID, itemID, category string) (*domain.Receipt, *domain.CategorySummary, error) {
	if !domain.IsKnownCategory(category) {
		return nil, nil, &ReceiptServiceError{
			Op:  "validate_category",
			Err: fmt.Errorf("unknown category: %s", category),
		}
	}

	receipt, summary, err := s.repository.CorrectLineItemCategory(ctx, receiptID, itemID, category, health.Score)
	if err != nil {
		return nil, nil, &ReceiptServiceError{
			Op:  "correct_item_category",
			Err: err,
		}
	}
	return receipt, summary, nil
}

// GetMonthlySpend retrieves per-month totals and average health score for a year
func (s *ReceiptServiceImpl) GetMonthlySpend(ctx context.Context, year int) ([]domain.MonthlySpend, error) {
	months, err := s.repository.GetMonthlySpend(ctx, year)
	if err != nil {
		return nil, &ReceiptServiceError{
			Op:  "get_monthly_spend",
			Err: err,
		}
	}
	return months, nil
}

// GetCategoryBreakdown retrieves aggregate per-category totals across all receipts
func (s *ReceiptServiceImpl) GetCategoryBreakdown(ctx context.Context) ([]domain.CategoryBreakdown, error) {
	breakdown, err := s.repository.GetCategoryBreakdown(ctx)
	if err != nil {
		return nil, &ReceiptServiceError{
			Op:  "get_category_breakdown",
			Err: err,
		}
	}
	return breakdown, nil
}
