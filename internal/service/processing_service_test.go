package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/health"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
	"github.com/receipthealth/receipt-processor-service/internal/status"
)

func TestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Service Suite")
}

// mockRepository is an in-memory ReceiptRepository with injectable errors
type mockRepository struct {
	mu            sync.Mutex
	documents     map[string]*domain.Document
	receiptsByDoc map[string]*domain.Receipt
	summaries     map[string]*domain.CategorySummary
	saveErr       error
	createErr     error
	hashMisses    int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		documents:     map[string]*domain.Document{},
		receiptsByDoc: map[string]*domain.Receipt{},
		summaries:     map[string]*domain.CategorySummary{},
	}
}

func (m *mockRepository) CreateDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.documents {
		if existing.Sha256Hash == doc.Sha256Hash {
			return repository.ErrDuplicateHash
		}
	}
	copied := *doc
	m.documents[doc.ID] = &copied
	return nil
}

func (m *mockRepository) GetDocumentByID(_ context.Context, documentID string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[documentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockRepository) GetDocumentByHash(_ context.Context, sha256Hash string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashMisses > 0 {
		m.hashMisses--
		return nil, repository.ErrNotFound
	}
	for _, doc := range m.documents {
		if doc.Sha256Hash == sha256Hash {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepository) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := []domain.Document{}
	for _, doc := range m.documents {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *mockRepository) SetDocumentStatus(_ context.Context, documentID, docStatus, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[documentID]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Status = docStatus
	doc.ErrorMessage = errorMessage
	return nil
}

func (m *mockRepository) SaveProcessedReceipt(_ context.Context, receipt *domain.Receipt, items []domain.LineItem, summary *domain.CategorySummary) (*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	receipt.ID = "receipt-" + receipt.DocumentID
	receipt.Items = items
	m.receiptsByDoc[receipt.DocumentID] = receipt
	m.summaries[receipt.ID] = summary
	if doc, ok := m.documents[receipt.DocumentID]; ok {
		doc.Status = domain.DocumentStatusProcessed
		doc.ErrorMessage = ""
	}
	return receipt, nil
}

func (m *mockRepository) GetReceiptByID(_ context.Context, receiptID string) (*domain.Receipt, *domain.CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, receipt := range m.receiptsByDoc {
		if receipt.ID == receiptID {
			return receipt, m.summaries[receiptID], nil
		}
	}
	return nil, nil, repository.ErrNotFound
}

func (m *mockRepository) GetReceiptByDocumentID(_ context.Context, documentID string) (*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receiptsByDoc[documentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return receipt, nil
}

func (m *mockRepository) ListReceipts(_ context.Context) ([]domain.ReceiptListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []domain.ReceiptListEntry{}
	for docID, receipt := range m.receiptsByDoc {
		entries = append(entries, domain.ReceiptListEntry{
			Receipt:          *receipt,
			DocumentFileName: m.documents[docID].FileName,
			LineItemCount:    len(receipt.Items),
			Summary:          m.summaries[receipt.ID],
		})
	}
	return entries, nil
}

func (m *mockRepository) DeleteReceipt(_ context.Context, receiptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for docID, receipt := range m.receiptsByDoc {
		if receipt.ID == receiptID {
			delete(m.receiptsByDoc, docID)
			delete(m.summaries, receiptID)
			delete(m.documents, docID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockRepository) CorrectLineItemCategory(_ context.Context, receiptID, itemID, category string, rescore func([]domain.LineItem) float64) (*domain.Receipt, *domain.CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, receipt := range m.receiptsByDoc {
		if receipt.ID != receiptID {
			continue
		}
		for i := range receipt.Items {
			if receipt.Items[i].ID == itemID {
				receipt.Items[i].Category = category
				summary := domain.SummarizeCategories(receipt.Items)
				receipt.HealthScore = rescore(receipt.Items)
				m.summaries[receiptID] = &summary
				return receipt, &summary, nil
			}
		}
	}
	return nil, nil, repository.ErrNotFound
}

func (m *mockRepository) GetMonthlySpend(_ context.Context, _ int) ([]domain.MonthlySpend, error) {
	return []domain.MonthlySpend{}, nil
}

func (m *mockRepository) GetCategoryBreakdown(_ context.Context) ([]domain.CategoryBreakdown, error) {
	return []domain.CategoryBreakdown{}, nil
}

// mockStore records saved files in memory
type mockStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
}

func (m *mockStore) Save(data []byte, declaredName string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", "", m.saveErr
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	path := "stored/" + declaredName
	m.saved[path] = data
	return path, "", nil
}

// mockExtractor returns scripted text
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _, _ string) (string, error) {
	return m.text, m.err
}

// mockParser returns scripted parse results
type mockParser struct {
	receipt *domain.Receipt
	items   []domain.LineItem
	err     error
}

func (m *mockParser) Parse(_ context.Context, _ string) (*domain.Receipt, []domain.LineItem, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	receipt := *m.receipt
	items := make([]domain.LineItem, len(m.items))
	copy(items, m.items)
	return &receipt, items, nil
}

// mockClassifier returns scripted categories
type mockClassifier struct {
	categories []string
	err        error
}

func (m *mockClassifier) Categorize(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return domain.CategoryUnknown, m.err
	}
	if len(m.categories) > 0 {
		return m.categories[0], nil
	}
	return domain.CategoryUnknown, nil
}

func (m *mockClassifier) CategorizeBatch(_ context.Context, descriptions []string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

var _ = Describe("ProcessingService", func() {
	var (
		repo       *mockRepository
		store      *mockStore
		extractor  *mockExtractor
		parse      *mockParser
		classifier *mockClassifier
		tracker    *status.Tracker
		svc        *ProcessingServiceImpl
		ctx        context.Context
	)

	allowedTypes := []string{"image/jpeg", "image/jpg", "image/png", "application/pdf", "text/plain"}

	newService := func() *ProcessingServiceImpl {
		return NewProcessingService(repo, store, extractor, parse, classifier, tracker,
			1024*1024, allowedTypes, 2)
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		store = &mockStore{}
		extractor = &mockExtractor{text: "GREEN GROCER\nApples 4.99\nTotal: 7.98\n"}
		parse = &mockParser{
			receipt: &domain.Receipt{Vendor: "Green Grocer", Total: 7.98, Currency: "USD", Date: time.Now().UTC()},
			items: []domain.LineItem{
				{Description: "Apples", Price: 4.99, Quantity: 1},
				{Description: "Candy Bar", Price: 2.99, Quantity: 1},
			},
		}
		classifier = &mockClassifier{categories: []string{domain.CategoryHealthy, domain.CategoryJunk}}
		tracker = status.NewTracker()
		svc = newService()
	})

	Describe("Upload validation", func() {
		It("rejects a file over the size ceiling", func() {
			small := NewProcessingService(repo, store, extractor, parse, classifier, tracker,
				4, allowedTypes, 2)
			result := small.Upload(ctx, "big.txt", "text/plain", []byte("too large"))
			Expect(result.Status).To(Equal(UploadStatusError))
			Expect(result.DocumentID).To(BeEmpty())
		})

		It("rejects an empty file", func() {
			result := svc.Upload(ctx, "empty.txt", "text/plain", nil)
			Expect(result.Status).To(Equal(UploadStatusError))
		})

		It("rejects an unsupported media type", func() {
			result := svc.Upload(ctx, "notes.docx", "application/msword", []byte("x"))
			Expect(result.Status).To(Equal(UploadStatusError))
			Expect(result.Message).To(ContainSubstring("not supported"))
		})

		It("strips media type parameters before matching the allow-list", func() {
			result := svc.Upload(ctx, "r.txt", "text/plain; charset=utf-8", []byte("receipt"))
			Expect(result.Status).To(Equal(UploadStatusProcessing))
			svc.Shutdown()
		})
	})

	Describe("duplicate detection", func() {
		It("flags a second upload of the same bytes regardless of file name", func() {
			first := svc.Upload(ctx, "march.txt", "text/plain", []byte("same bytes"))
			Expect(first.Status).To(Equal(UploadStatusProcessing))
			svc.Shutdown()

			second := svc.Upload(ctx, "copy-of-march.txt", "text/plain", []byte("same bytes"))
			Expect(second.Status).To(Equal(UploadStatusDuplicate))
			Expect(second.DocumentID).To(Equal(first.DocumentID))
		})

		It("does not create a second document for a duplicate", func() {
			svc.Upload(ctx, "a.txt", "text/plain", []byte("same bytes"))
			svc.Shutdown()
			svc.Upload(ctx, "b.txt", "text/plain", []byte("same bytes"))

			docs, err := repo.ListDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
		})

		It("reprocesses a re-upload of bytes whose previous run failed", func() {
			extractor.err = errors.New("ocr backend down")
			first := svc.Upload(ctx, "r.txt", "text/plain", []byte("retry me"))
			svc.Shutdown()

			doc, err := repo.GetDocumentByID(ctx, first.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Status).To(Equal(domain.DocumentStatusFailed))

			extractor.err = nil
			second := svc.Upload(ctx, "r.txt", "text/plain", []byte("retry me"))
			Expect(second.Status).To(Equal(UploadStatusProcessing))
			Expect(second.DocumentID).To(Equal(first.DocumentID))
			svc.Shutdown()

			doc, err = repo.GetDocumentByID(ctx, first.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Status).To(Equal(domain.DocumentStatusProcessed))
		})

		It("reports a duplicate when the insert loses a race with the same bytes", func() {
			first := svc.Upload(ctx, "fast.txt", "text/plain", []byte("same bytes"))
			Expect(first.Status).To(Equal(UploadStatusProcessing))
			svc.Shutdown()

			// The hash lookup misses once, as it does when two uploads of the
			// same content check before either insert lands. The unique
			// constraint then rejects the second insert.
			repo.hashMisses = 1
			second := svc.Upload(ctx, "slow.txt", "text/plain", []byte("same bytes"))
			Expect(second.Status).To(Equal(UploadStatusDuplicate))
			Expect(second.DocumentID).To(Equal(first.DocumentID))

			docs, err := repo.ListDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
		})
	})

	Describe("background processing", func() {
		It("processes an upload through to a persisted receipt", func() {
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			Expect(result.Status).To(Equal(UploadStatusProcessing))
			svc.Shutdown()

			receipt, err := repo.GetReceiptByDocumentID(ctx, result.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Items).To(HaveLen(2))
			Expect(receipt.Items[0].Category).To(Equal(domain.CategoryHealthy))
			Expect(receipt.Items[1].Category).To(Equal(domain.CategoryJunk))
			Expect(receipt.HealthScore).To(BeNumerically("~", health.Score(receipt.Items), 0.001))
			Expect(receipt.RawText).To(ContainSubstring("GREEN GROCER"))

			update, ok := tracker.Get(result.DocumentID)
			Expect(ok).To(BeTrue())
			Expect(update.State).To(Equal(status.StateCompleted))
			Expect(update.ReceiptID).To(Equal(receipt.ID))
		})

		It("persists the category summary alongside the receipt", func() {
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			receipt, _ := repo.GetReceiptByDocumentID(ctx, result.DocumentID)
			summary := repo.summaries[receipt.ID]
			Expect(summary).NotTo(BeNil())
			Expect(summary.HealthyTotal).To(BeNumerically("~", 4.99, 0.001))
			Expect(summary.JunkTotal).To(BeNumerically("~", 2.99, 0.001))
			Expect(summary.HealthyCount).To(Equal(1))
			Expect(summary.JunkCount).To(Equal(1))
		})

		It("marks the document Failed when extraction fails", func() {
			extractor.err = errors.New("ocr backend down")
			result := svc.Upload(ctx, "r.jpg", "image/jpeg", []byte("img"))
			svc.Shutdown()

			doc, err := repo.GetDocumentByID(ctx, result.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Status).To(Equal(domain.DocumentStatusFailed))
			Expect(doc.ErrorMessage).To(ContainSubstring("text extraction failed"))

			update, ok := tracker.Get(result.DocumentID)
			Expect(ok).To(BeTrue())
			Expect(update.State).To(Equal(status.StateError))
		})

		It("marks the document Failed when persistence fails", func() {
			repo.saveErr = errors.New("connection reset")
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			doc, _ := repo.GetDocumentByID(ctx, result.DocumentID)
			Expect(doc.Status).To(Equal(domain.DocumentStatusFailed))
		})

		It("isolates a failing document from other uploads", func() {
			repo.saveErr = nil
			okResult := svc.Upload(ctx, "good.txt", "text/plain", []byte("good receipt"))
			svc.Shutdown()

			extractor.err = errors.New("boom")
			badResult := svc.Upload(ctx, "bad.txt", "text/plain", []byte("bad receipt"))
			svc.Shutdown()

			goodDoc, _ := repo.GetDocumentByID(ctx, okResult.DocumentID)
			badDoc, _ := repo.GetDocumentByID(ctx, badResult.DocumentID)
			Expect(goodDoc.Status).To(Equal(domain.DocumentStatusProcessed))
			Expect(badDoc.Status).To(Equal(domain.DocumentStatusFailed))
		})
	})

	Describe("categorization faults", func() {
		It("marks every item Unknown when the classifier fails", func() {
			classifier.err = errors.New("model unavailable")
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			receipt, err := repo.GetReceiptByDocumentID(ctx, result.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			for _, item := range receipt.Items {
				Expect(item.Category).To(Equal(domain.CategoryUnknown))
			}
			Expect(receipt.HealthScore).To(Equal(health.NeutralScore))
		})

		It("marks every item Unknown on a cardinality mismatch, never a partial assignment", func() {
			classifier.categories = []string{domain.CategoryHealthy} // two items expected
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			receipt, _ := repo.GetReceiptByDocumentID(ctx, result.DocumentID)
			for _, item := range receipt.Items {
				Expect(item.Category).To(Equal(domain.CategoryUnknown))
			}
		})

		It("maps unrecognized category names to Unknown", func() {
			classifier.categories = []string{"Snacks", domain.CategoryJunk}
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			receipt, _ := repo.GetReceiptByDocumentID(ctx, result.DocumentID)
			Expect(receipt.Items[0].Category).To(Equal(domain.CategoryUnknown))
			Expect(receipt.Items[1].Category).To(Equal(domain.CategoryJunk))
		})
	})

	Describe("GetStatus", func() {
		It("returns the tracker entry while a document is in flight", func() {
			tracker.Set("doc-1", status.Update{State: status.StateProcessing, Message: "Parsing receipt"})
			update, err := svc.GetStatus(ctx, "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(update.State).To(Equal(status.StateProcessing))
			Expect(update.Message).To(Equal("Parsing receipt"))
		})

		It("errors with not found for an unknown document", func() {
			_, err := svc.GetStatus(ctx, "nope")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, repository.ErrNotFound)).To(BeTrue())
		})

		It("falls back to the persisted receipt after a restart", func() {
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			// Simulate a restart by polling through a fresh tracker.
			restarted := NewProcessingService(repo, store, extractor, parse, classifier,
				status.NewTracker(), 1024*1024, allowedTypes, 2)
			update, err := restarted.GetStatus(ctx, result.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(update.State).To(Equal(status.StateCompleted))
			Expect(update.ReceiptID).NotTo(BeEmpty())
		})

		It("falls back to the persisted failure after a restart", func() {
			extractor.err = errors.New("boom")
			result := svc.Upload(ctx, "r.txt", "text/plain", []byte("receipt"))
			svc.Shutdown()

			restarted := NewProcessingService(repo, store, extractor, parse, classifier,
				status.NewTracker(), 1024*1024, allowedTypes, 2)
			update, err := restarted.GetStatus(ctx, result.DocumentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(update.State).To(Equal(status.StateError))
			Expect(update.Message).To(ContainSubstring("text extraction failed"))
		})
	})
})
