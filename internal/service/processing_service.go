package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/receipthealth/receipt-processor-service/internal/classify"
	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/extraction"
	"github.com/receipthealth/receipt-processor-service/internal/health"
	"github.com/receipthealth/receipt-processor-service/internal/parser"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
	"github.com/receipthealth/receipt-processor-service/internal/status"
	"github.com/receipthealth/receipt-processor-service/internal/storage"
)

// ProcessingError represents an error in the document processing service
type ProcessingError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Upload statuses reported per file in the upload response
const (
	UploadStatusProcessing = "processing"
	UploadStatusDuplicate  = "duplicate"
	UploadStatusError      = "error"
)

// UploadResult is the per-file outcome of an upload request
type UploadResult struct {
	DocumentID string
	FileName   string
	Status     string
	Message    string
}

// ContentStore persists raw upload bytes and addresses them by content hash.
type ContentStore interface {
	Save(data []byte, declaredName string) (string, string, error)
}

// ProcessingService accepts uploads, runs the background pipeline, and answers
// status polls.
type ProcessingService interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) *UploadResult
	GetStatus(ctx context.Context, documentID string) (status.Update, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Shutdown waits for in-flight background processing to finish.
	Shutdown()
}

// ProcessingServiceImpl implements ProcessingService. Each accepted upload is
// processed by one background goroutine; concurrency is bounded by a worker
// pool so a burst of uploads cannot exhaust the process.
type ProcessingServiceImpl struct {
	repository repository.ReceiptRepository
	store      ContentStore
	extractor  extraction.Extractor
	parser     parser.Parser
	classifier classify.Classifier
	tracker    *status.Tracker

	maxFileSizeBytes int64
	allowedTypes     map[string]bool

	workerPool chan struct{}
	wg         sync.WaitGroup
}

// NewProcessingService creates a new document processing service
func NewProcessingService(
	repo repository.ReceiptRepository,
	store ContentStore,
	extractor extraction.Extractor,
	receiptParser parser.Parser,
	classifier classify.Classifier,
	tracker *status.Tracker,
	maxFileSizeBytes int64,
	allowedMediaTypes []string,
	maxWorkers int,
) *ProcessingServiceImpl {
	if maxWorkers <= 0 {
		maxWorkers = 5 // Default to 5 workers
	}

	allowed := make(map[string]bool, len(allowedMediaTypes))
	for _, mediaType := range allowedMediaTypes {
		allowed[strings.ToLower(mediaType)] = true
	}

	return &ProcessingServiceImpl{
		repository:       repo,
		store:            store,
		extractor:        extractor,
		parser:           receiptParser,
		classifier:       classifier,
		tracker:          tracker,
		maxFileSizeBytes: maxFileSizeBytes,
		allowedTypes:     allowed,
		workerPool:       make(chan struct{}, maxWorkers),
	}
}

// normalizeMediaType strips parameters like "; charset=utf-8" from a declared
// content type.
func normalizeMediaType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Upload validates one file, records it, and schedules background processing.
// Failures are reported in the result rather than as an error so a multi-file
// upload can return a per-file outcome for every file.
func (s *ProcessingServiceImpl) Upload(ctx context.Context, fileName, contentType string, data []byte) *UploadResult {
	result := &UploadResult{FileName: fileName}

	if int64(len(data)) > s.maxFileSizeBytes {
		result.Status = UploadStatusError
		result.Message = fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSizeBytes)
		return result
	}
	if len(data) == 0 {
		result.Status = UploadStatusError
		result.Message = "file is empty"
		return result
	}

	mediaType := normalizeMediaType(contentType)
	if !s.allowedTypes[mediaType] {
		result.Status = UploadStatusError
		result.Message = fmt.Sprintf("content type not supported: %s", contentType)
		return result
	}

	// Duplicate detection by content hash, independent of file name.
	hash := storage.HashBytes(data)
	existing, err := s.repository.GetDocumentByHash(ctx, hash)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		result.Status = UploadStatusError
		result.Message = "failed to check for duplicates"
		log.Printf("duplicate check failed for %s: %v", fileName, err)
		return result
	}

	if existing != nil {
		// A failed document with the same bytes gets another run; anything
		// else is a duplicate of content already accepted.
		if existing.Status != domain.DocumentStatusFailed {
			result.DocumentID = existing.ID
			result.Status = UploadStatusDuplicate
			result.Message = fmt.Sprintf("content already uploaded as %q", existing.FileName)
			return result
		}
		if err := s.repository.SetDocumentStatus(ctx, existing.ID, domain.DocumentStatusProcessing, ""); err != nil {
			result.Status = UploadStatusError
			result.Message = "failed to reschedule document"
			log.Printf("reschedule failed for document %s: %v", existing.ID, err)
			return result
		}
		s.schedule(existing)
		result.DocumentID = existing.ID
		result.Status = UploadStatusProcessing
		result.Message = "reprocessing previously failed upload"
		return result
	}

	filePath, _, err := s.store.Save(data, fileName)
	if err != nil {
		result.Status = UploadStatusError
		result.Message = "failed to store file"
		log.Printf("store failed for %s: %v", fileName, err)
		return result
	}

	doc := &domain.Document{
		ID:            uuid.NewString(),
		FileName:      fileName,
		FilePath:      filePath,
		Sha256Hash:    hash,
		ContentType:   mediaType,
		FileSizeBytes: int64(len(data)),
		UploadedAt:    time.Now().UTC(),
		Status:        domain.DocumentStatusProcessing,
	}
	if err := s.repository.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrDuplicateHash) {
			// Lost a race with a concurrent upload of the same bytes; the
			// winner's document is the canonical one.
			if winner, lookupErr := s.repository.GetDocumentByHash(ctx, hash); lookupErr == nil {
				result.DocumentID = winner.ID
				result.Status = UploadStatusDuplicate
				result.Message = fmt.Sprintf("content already uploaded as %q", winner.FileName)
				return result
			}
		}
		result.Status = UploadStatusError
		result.Message = "failed to record document"
		log.Printf("create document failed for %s: %v", fileName, err)
		return result
	}

	s.schedule(doc)
	result.DocumentID = doc.ID
	result.Status = UploadStatusProcessing
	result.Message = "accepted for processing"
	return result
}

// schedule starts the background pipeline for a document. Worker acquisition
// happens inside the goroutine so the upload response never waits on pool
// capacity.
func (s *ProcessingServiceImpl) schedule(doc *domain.Document) {
	s.tracker.Set(doc.ID, status.Update{
		State:   status.StateProcessing,
		Message: "Queued for processing",
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.workerPool <- struct{}{}
		defer func() { <-s.workerPool }()
		s.processDocument(context.Background(), doc)
	}()
}

// processDocument runs the full pipeline for one document: extract, parse,
// categorize, score, persist. Any failure, including a panic, marks the
// document Failed without affecting other documents.
func (s *ProcessingServiceImpl) processDocument(ctx context.Context, doc *domain.Document) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic while processing document %s: %v", doc.ID, r)
			s.fail(ctx, doc.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	s.tracker.Set(doc.ID, status.Update{
		State:   status.StateProcessing,
		Message: "Extracting text",
	})

	text, err := s.extractor.Extract(ctx, doc.FilePath, doc.ContentType)
	if err != nil {
		log.Printf("text extraction failed for document %s: %v", doc.ID, err)
		s.fail(ctx, doc.ID, fmt.Sprintf("text extraction failed: %v", err))
		return
	}

	textLen := len(text)
	s.tracker.Set(doc.ID, status.Update{
		State:         status.StateProcessing,
		Message:       "Parsing receipt",
		OCRTextLength: &textLen,
	})

	receipt, items, err := s.parser.Parse(ctx, text)
	if err != nil {
		log.Printf("parse failed for document %s: %v", doc.ID, err)
		s.fail(ctx, doc.ID, fmt.Sprintf("parsing failed: %v", err))
		return
	}
	receipt.DocumentID = doc.ID
	receipt.RawText = text

	itemCount := len(items)
	s.tracker.Set(doc.ID, status.Update{
		State:      status.StateProcessing,
		Message:    "Categorizing items",
		ItemCount:  &itemCount,
		TotalItems: &itemCount,
	})

	s.categorize(ctx, items)

	categorized := len(items)
	s.tracker.Set(doc.ID, status.Update{
		State:            status.StateProcessing,
		Message:          "Calculating health score",
		ItemCount:        &itemCount,
		TotalItems:       &itemCount,
		CategorizedCount: &categorized,
	})

	summary := domain.SummarizeCategories(items)
	receipt.HealthScore = health.Score(items)
	receipt.ProcessedAt = time.Now().UTC()

	saved, err := s.repository.SaveProcessedReceipt(ctx, receipt, items, &summary)
	if err != nil {
		log.Printf("persist failed for document %s: %v", doc.ID, err)
		s.fail(ctx, doc.ID, fmt.Sprintf("saving results failed: %v", err))
		return
	}

	s.tracker.Set(doc.ID, status.Update{
		State:     status.StateCompleted,
		Message:   "Processing complete",
		ItemCount: &itemCount,
		ReceiptID: saved.ID,
	})
}

// categorize assigns a category to every item via one batch call. A failed
// call or a response with the wrong cardinality leaves every item Unknown; a
// partial assignment would silently misattribute categories to items.
func (s *ProcessingServiceImpl) categorize(ctx context.Context, items []domain.LineItem) {
	if len(items) == 0 {
		return
	}

	descriptions := make([]string, len(items))
	for i, item := range items {
		descriptions[i] = item.Description
	}

	categories, err := s.classifier.CategorizeBatch(ctx, descriptions)
	if err != nil || len(categories) != len(items) {
		if err != nil {
			log.Printf("categorization failed, marking %d items Unknown: %v", len(items), err)
		} else {
			log.Printf("categorization returned %d categories for %d items, marking all Unknown", len(categories), len(items))
		}
		for i := range items {
			items[i].Category = domain.CategoryUnknown
		}
		return
	}

	for i := range items {
		if domain.IsKnownCategory(categories[i]) {
			items[i].Category = categories[i]
		} else {
			items[i].Category = domain.CategoryUnknown
		}
	}
}

// fail flips the document to Failed and publishes the terminal error status.
func (s *ProcessingServiceImpl) fail(ctx context.Context, documentID, message string) {
	if err := s.repository.SetDocumentStatus(ctx, documentID, domain.DocumentStatusFailed, message); err != nil {
		log.Printf("failed to mark document %s as failed: %v", documentID, err)
	}
	s.tracker.Set(documentID, status.Update{
		State:   status.StateError,
		Message: message,
	})
}

// GetStatus answers a status poll. The in-memory tracker is authoritative for
// in-flight work; documents processed before a restart fall back to the
// persisted records.
func (s *ProcessingServiceImpl) GetStatus(ctx context.Context, documentID string) (status.Update, error) {
	if update, ok := s.tracker.Get(documentID); ok {
		return update, nil
	}

	doc, err := s.repository.GetDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status.Update{}, &ProcessingError{Op: "get_status", Err: repository.ErrNotFound}
		}
		return status.Update{}, &ProcessingError{Op: "get_status", Err: err}
	}

	switch doc.Status {
	case domain.DocumentStatusProcessed:
		update := status.Update{State: status.StateCompleted, Message: "Processing complete", UpdatedAt: doc.UploadedAt}
		receipt, err := s.repository.GetReceiptByDocumentID(ctx, documentID)
		if err == nil {
			update.ReceiptID = receipt.ID
			update.UpdatedAt = receipt.ProcessedAt
			count := len(receipt.Items)
			if count > 0 {
				update.ItemCount = &count
			}
		}
		return update, nil
	case domain.DocumentStatusFailed:
		message := doc.ErrorMessage
		if message == "" {
			message = "processing failed"
		}
		return status.Update{State: status.StateError, Message: message, UpdatedAt: doc.UploadedAt}, nil
	default:
		// In-flight before a restart; the run is lost until re-uploaded.
		return status.Update{State: status.StateProcessing, Message: "Processing", UpdatedAt: doc.UploadedAt}, nil
	}
}

// ListDocuments retrieves all uploaded documents, newest first
func (s *ProcessingServiceImpl) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	documents, err := s.repository.ListDocuments(ctx)
	if err != nil {
		return nil, &ProcessingError{Op: "list_documents", Err: err}
	}
	return documents, nil
}

// Shutdown waits for in-flight background processing to finish.
func (s *ProcessingServiceImpl) Shutdown() {
	s.wg.Wait()
}
