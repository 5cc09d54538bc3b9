// Package repository persists documents, receipts, line items and category
// summaries in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateHash is returned by CreateDocument when another document with
// the same content hash was inserted first.
var ErrDuplicateHash = errors.New("duplicate content hash")

// RepositoryError represents an error that occurred within a repository
type RepositoryError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// ReceiptRepository defines persistence for the processing pipeline and the
// read endpoints. SaveProcessedReceipt and CorrectLineItemCategory are the two
// operations with transactional all-or-nothing semantics.
type ReceiptRepository interface {
	// Document lifecycle
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)
	GetDocumentByHash(ctx context.Context, sha256Hash string) (*domain.Document, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	SetDocumentStatus(ctx context.Context, documentID, status, errorMessage string) error

	// Pipeline persistence: insert receipt + line items + summary and flip the
	// document to Processed in one transaction.
	SaveProcessedReceipt(ctx context.Context, receipt *domain.Receipt, items []domain.LineItem, summary *domain.CategorySummary) (*domain.Receipt, error)

	// Reads
	GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, *domain.CategorySummary, error)
	GetReceiptByDocumentID(ctx context.Context, documentID string) (*domain.Receipt, error)
	ListReceipts(ctx context.Context) ([]domain.ReceiptListEntry, error)

	// DeleteReceipt removes the receipt's owning document; line items and the
	// summary go with it via FK cascade.
	DeleteReceipt(ctx context.Context, receiptID string) error

	// CorrectLineItemCategory updates one line item's category and, in the
	// same transaction, recomputes the owning receipt's category summary and
	// health score over the full current item set. rescore is a pure function
	// mapping the updated items to the new score.
	CorrectLineItemCategory(ctx context.Context, receiptID, itemID, category string, rescore func([]domain.LineItem) float64) (*domain.Receipt, *domain.CategorySummary, error)

	// Analytics
	GetMonthlySpend(ctx context.Context, year int) ([]domain.MonthlySpend, error)
	GetCategoryBreakdown(ctx context.Context) ([]domain.CategoryBreakdown, error)
}
