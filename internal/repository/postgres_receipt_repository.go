package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// PostgresReceiptRepository implements ReceiptRepository using PostgreSQL
type PostgresReceiptRepository struct {
	db *pgxpool.Pool
}

// NewPostgresReceiptRepository creates a new PostgreSQL receipt repository
func NewPostgresReceiptRepository(db *pgxpool.Pool) *PostgresReceiptRepository {
	return &PostgresReceiptRepository{
		db: db,
	}
}

// CreateDocument inserts a new document row. The id is assigned by the caller
// so the background task can be keyed before the insert returns.
func (r *PostgresReceiptRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO documents (id, file_name, file_path, sha256_hash, content_type, file_size_bytes, uploaded_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, doc.ID, doc.FileName, doc.FilePath, doc.Sha256Hash, doc.ContentType, doc.FileSizeBytes, doc.UploadedAt, doc.Status)
	if err != nil {
		// sha256_hash is the only unique constraint besides the pk, so a
		// unique violation means a concurrent upload of the same bytes won.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHash
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var errorMessage *string
	err := row.Scan(&doc.ID, &doc.FileName, &doc.FilePath, &doc.Sha256Hash, &doc.ContentType,
		&doc.FileSizeBytes, &doc.UploadedAt, &doc.Status, &errorMessage)
	if err != nil {
		return nil, err
	}
	if errorMessage != nil {
		doc.ErrorMessage = *errorMessage
	}
	return &doc, nil
}

const documentColumns = `id, file_name, file_path, sha256_hash, content_type, file_size_bytes, uploaded_at, status, error_message`

// GetDocumentByID retrieves a document by its ID
func (r *PostgresReceiptRepository) GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocumentByHash retrieves a document by its content hash. Used for
// duplicate detection: the sha256_hash column carries a unique constraint.
func (r *PostgresReceiptRepository) GetDocumentByHash(ctx context.Context, sha256Hash string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE sha256_hash = $1`, sha256Hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document by hash: %w", err)
	}
	return doc, nil
}

// ListDocuments retrieves all documents, newest first
func (r *PostgresReceiptRepository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	documents := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return documents, nil
}

// SetDocumentStatus updates a document's lifecycle status and error message
func (r *PostgresReceiptRepository) SetDocumentStatus(ctx context.Context, documentID, status, errorMessage string) error {
	var errMsg *string
	if errorMessage != "" {
		errMsg = &errorMessage
	}
	commandTag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1, error_message = $2 WHERE id = $3`,
		status, errMsg, documentID)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProcessedReceipt persists the receipt, its line items, the category
// summary, and the document's Processed status in a single transaction. On
// any error nothing is committed.
func (r *PostgresReceiptRepository) SaveProcessedReceipt(ctx context.Context, receipt *domain.Receipt, items []domain.LineItem, summary *domain.CategorySummary) (*domain.Receipt, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	err = tx.QueryRow(ctx, `
		INSERT INTO receipts (document_id, vendor, date, subtotal, tax, total, currency, health_score, raw_text, is_degraded, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, receipt.DocumentID, receipt.Vendor, receipt.Date, receipt.Subtotal, receipt.Tax, receipt.Total,
		receipt.Currency, receipt.HealthScore, receipt.RawText, receipt.IsDegraded, receipt.ProcessedAt).Scan(&receipt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert receipt: %w", err)
	}

	for i := range items {
		item := &items[i]
		item.ReceiptID = receipt.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO line_items (receipt_id, position, description, price, qty, category)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, receipt.ID, i, item.Description, item.Price, item.Quantity, item.Category).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	summary.ReceiptID = receipt.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO category_summaries (receipt_id, healthy_total, junk_total, other_total, unknown_total, healthy_count, junk_count, other_count, unknown_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, summary.ReceiptID, summary.HealthyTotal, summary.JunkTotal, summary.OtherTotal, summary.UnknownTotal,
		summary.HealthyCount, summary.JunkCount, summary.OtherCount, summary.UnknownCount).Scan(&summary.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category summary: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE documents SET status = $1, error_message = NULL WHERE id = $2`,
		domain.DocumentStatusProcessed, receipt.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to update document status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	receipt.Items = items
	return receipt, nil
}

const receiptColumns = `id, document_id, vendor, date, subtotal, tax, total, currency, health_score, raw_text, is_degraded, processed_at`

func scanReceipt(row pgx.Row) (*domain.Receipt, error) {
	var receipt domain.Receipt
	var rawText *string
	err := row.Scan(&receipt.ID, &receipt.DocumentID, &receipt.Vendor, &receipt.Date, &receipt.Subtotal,
		&receipt.Tax, &receipt.Total, &receipt.Currency, &receipt.HealthScore, &rawText,
		&receipt.IsDegraded, &receipt.ProcessedAt)
	if err != nil {
		return nil, err
	}
	if rawText != nil {
		receipt.RawText = *rawText
	}
	return &receipt, nil
}

func (r *PostgresReceiptRepository) queryLineItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, receiptID string) ([]domain.LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, receipt_id, description, price, qty, category
		FROM line_items
		WHERE receipt_id = $1
		ORDER BY position
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.ReceiptID, &item.Description, &item.Price, &item.Quantity, &item.Category); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}
	return items, nil
}

func scanSummary(row pgx.Row) (*domain.CategorySummary, error) {
	var s domain.CategorySummary
	err := row.Scan(&s.ID, &s.ReceiptID, &s.HealthyTotal, &s.JunkTotal, &s.OtherTotal, &s.UnknownTotal,
		&s.HealthyCount, &s.JunkCount, &s.OtherCount, &s.UnknownCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const summaryColumns = `id, receipt_id, healthy_total, junk_total, other_total, unknown_total, healthy_count, junk_count, other_count, unknown_count`

// GetReceiptByID retrieves a receipt with its line items and category summary
func (r *PostgresReceiptRepository) GetReceiptByID(ctx context.Context, receiptID string) (*domain.Receipt, *domain.CategorySummary, error) {
	receipt, err := scanReceipt(r.db.QueryRow(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, receiptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	receipt.Items, err = r.queryLineItems(ctx, r.db, receiptID)
	if err != nil {
		return nil, nil, err
	}

	summary, err := scanSummary(r.db.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM category_summaries WHERE receipt_id = $1`, receiptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return receipt, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get category summary: %w", err)
	}

	return receipt, summary, nil
}

// GetReceiptByDocumentID retrieves the receipt owned by a document, if any
func (r *PostgresReceiptRepository) GetReceiptByDocumentID(ctx context.Context, documentID string) (*domain.Receipt, error) {
	receipt, err := scanReceipt(r.db.QueryRow(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE document_id = $1`, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get receipt by document: %w", err)
	}
	return receipt, nil
}

// ListReceipts retrieves receipt overview rows, newest purchase date first
func (r *PostgresReceiptRepository) ListReceipts(ctx context.Context) ([]domain.ReceiptListEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.document_id, r.vendor, r.date, r.subtotal, r.tax, r.total, r.currency,
		       r.health_score, r.is_degraded, r.processed_at,
		       d.file_name,
		       (SELECT COUNT(*) FROM line_items li WHERE li.receipt_id = r.id) AS item_count,
		       s.id, s.healthy_total, s.junk_total, s.other_total, s.unknown_total,
		       s.healthy_count, s.junk_count, s.other_count, s.unknown_count
		FROM receipts r
		JOIN documents d ON d.id = r.document_id
		LEFT JOIN category_summaries s ON s.receipt_id = r.id
		ORDER BY r.date DESC, r.processed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	entries := []domain.ReceiptListEntry{}
	for rows.Next() {
		var entry domain.ReceiptListEntry
		var summaryID *string
		var s domain.CategorySummary
		var healthyTotal, junkTotal, otherTotal, unknownTotal *float64
		var healthyCount, junkCount, otherCount, unknownCount *int
		err := rows.Scan(&entry.ID, &entry.DocumentID, &entry.Vendor, &entry.Date, &entry.Subtotal,
			&entry.Tax, &entry.Total, &entry.Currency, &entry.HealthScore, &entry.IsDegraded,
			&entry.ProcessedAt, &entry.DocumentFileName, &entry.LineItemCount,
			&summaryID, &healthyTotal, &junkTotal, &otherTotal, &unknownTotal,
			&healthyCount, &junkCount, &otherCount, &unknownCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		if summaryID != nil {
			s.ID = *summaryID
			s.ReceiptID = entry.ID
			s.HealthyTotal, s.JunkTotal, s.OtherTotal, s.UnknownTotal = *healthyTotal, *junkTotal, *otherTotal, *unknownTotal
			s.HealthyCount, s.JunkCount, s.OtherCount, s.UnknownCount = *healthyCount, *junkCount, *otherCount, *unknownCount
			entry.Summary = &s
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipts: %w", err)
	}
	return entries, nil
}

// DeleteReceipt removes a receipt by deleting its owning document; the
// receipt, line items and summary follow via ON DELETE CASCADE.
func (r *PostgresReceiptRepository) DeleteReceipt(ctx context.Context, receiptID string) error {
	commandTag, err := r.db.Exec(ctx, `
		DELETE FROM documents
		WHERE id = (SELECT document_id FROM receipts WHERE id = $1)
	`, receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CorrectLineItemCategory updates one line item's category and recomputes the
// owning receipt's summary and health score in the same transaction.
func (r *PostgresReceiptRepository) CorrectLineItemCategory(ctx context.Context, receiptID, itemID, category string, rescore func([]domain.LineItem) float64) (*domain.Receipt, *domain.CategorySummary, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	commandTag, err := tx.Exec(ctx,
		`UPDATE line_items SET category = $1 WHERE id = $2 AND receipt_id = $3`,
		category, itemID, receiptID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update line item: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return nil, nil, ErrNotFound
	}

	items, err := r.queryLineItems(ctx, tx, receiptID)
	if err != nil {
		return nil, nil, err
	}

	summary := domain.SummarizeCategories(items)
	err = tx.QueryRow(ctx, `
		UPDATE category_summaries
		SET healthy_total = $1, junk_total = $2, other_total = $3, unknown_total = $4,
		    healthy_count = $5, junk_count = $6, other_count = $7, unknown_count = $8
		WHERE receipt_id = $9
		RETURNING id
	`, summary.HealthyTotal, summary.JunkTotal, summary.OtherTotal, summary.UnknownTotal,
		summary.HealthyCount, summary.JunkCount, summary.OtherCount, summary.UnknownCount,
		receiptID).Scan(&summary.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update category summary: %w", err)
	}
	summary.ReceiptID = receiptID

	score := rescore(items)
	receipt, err := scanReceipt(tx.QueryRow(ctx, `
		UPDATE receipts SET health_score = $1 WHERE id = $2
		RETURNING `+receiptColumns, score, receiptID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update receipt score: %w", err)
	}
	receipt.Items = items

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return receipt, &summary, nil
}
