package service

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
)

var _ = Describe("ReceiptService", func() {
	var (
		repo *mockRepository
		svc  ReceiptService
		ctx  context.Context
	)

	seedReceipt := func() *domain.Receipt {
		receipt := &domain.Receipt{
			ID:          "receipt-1",
			DocumentID:  "doc-1",
			Vendor:      "Green Grocer",
			Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Total:       7.98,
			Currency:    "USD",
			HealthScore: 62.53,
			Items: []domain.LineItem{
				{ID: "item-1", ReceiptID: "receipt-1", Description: "Apples", Price: 4.99, Quantity: 1, Category: domain.CategoryHealthy},
				{ID: "item-2", ReceiptID: "receipt-1", Description: "Candy Bar", Price: 2.99, Quantity: 1, Category: domain.CategoryJunk},
			},
		}
		repo.documents["doc-1"] = &domain.Document{ID: "doc-1", FileName: "march.txt", Status: domain.DocumentStatusProcessed}
		repo.receiptsByDoc["doc-1"] = receipt
		summary := domain.SummarizeCategories(receipt.Items)
		repo.summaries["receipt-1"] = &summary
		return receipt
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		svc = NewReceiptService(repo)
	})

	Describe("GetReceiptByID", func() {
		It("returns the receipt with its summary", func() {
			seedReceipt()
			receipt, summary, err := svc.GetReceiptByID(ctx, "receipt-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Vendor).To(Equal("Green Grocer"))
			Expect(summary.HealthyCount).To(Equal(1))
		})

		It("wraps not found", func() {
			_, _, err := svc.GetReceiptByID(ctx, "missing")
			Expect(errors.Is(err, repository.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("DeleteReceipt", func() {
		It("removes the receipt and its owning document", func() {
			seedReceipt()
			Expect(svc.DeleteReceipt(ctx, "receipt-1")).To(Succeed())

			_, err := repo.GetDocumentByID(ctx, "doc-1")
			Expect(errors.Is(err, repository.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("CorrectItemCategory", func() {
		It("rejects a category outside the known set", func() {
			seedReceipt()
			_, _, err := svc.CorrectItemCategory(ctx, "receipt-1", "item-1", "Snacks")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown category"))
		})

		It("reassigns the category and recomputes summary and score", func() {
			seedReceipt()
			receipt, summary, err := svc.CorrectItemCategory(ctx, "receipt-1", "item-2", domain.CategoryHealthy)
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Items[1].Category).To(Equal(domain.CategoryHealthy))
			Expect(summary.JunkCount).To(Equal(0))
			Expect(summary.HealthyCount).To(Equal(2))
			Expect(receipt.HealthScore).To(Equal(100.0))
		})

		It("wraps not found for an unknown item", func() {
			seedReceipt()
			_, _, err := svc.CorrectItemCategory(ctx, "receipt-1", "missing", domain.CategoryOther)
			Expect(errors.Is(err, repository.ErrNotFound)).To(BeTrue())
		})
	})
})
