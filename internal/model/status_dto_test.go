package model

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receipthealth/receipt-processor-service/internal/status"
)

func TestModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Model Suite")
}

func intPtr(v int) *int { return &v }

var _ = Describe("StatusFromUpdate", func() {
	It("carries every populated counter through to the poll response", func() {
		update := status.Update{
			State:            status.StateProcessing,
			Message:          "Categorizing items",
			UpdatedAt:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			OCRTextLength:    intPtr(412),
			ItemCount:        intPtr(5),
			TotalItems:       intPtr(5),
			CategorizedCount: intPtr(3),
		}

		resp := StatusFromUpdate("doc-1", update)

		Expect(resp.DocumentID).To(Equal("doc-1"))
		Expect(resp.Status).To(Equal(status.StateProcessing))
		Expect(resp.OCRTextLength).To(HaveValue(Equal(412)))
		Expect(resp.ItemCount).To(HaveValue(Equal(5)))
		Expect(resp.TotalItems).To(HaveValue(Equal(5)))
		Expect(resp.CategorizedCount).To(HaveValue(Equal(3)))
		Expect(resp.UpdatedAt).To(Equal("2024-01-15T10:30:00Z"))
	})

	It("omits counters the pipeline has not reported yet", func() {
		resp := StatusFromUpdate("doc-2", status.Update{
			State:   status.StateProcessing,
			Message: "Queued for processing",
		})

		Expect(resp.OCRTextLength).To(BeNil())
		Expect(resp.TotalItems).To(BeNil())
		Expect(resp.ReceiptID).To(BeEmpty())
		Expect(resp.Progress).To(Equal(10))
	})

	It("reports full progress for terminal states", func() {
		completed := StatusFromUpdate("doc-3", status.Update{State: status.StateCompleted, ReceiptID: "receipt-3"})
		failed := StatusFromUpdate("doc-4", status.Update{State: status.StateError, Message: "text extraction failed"})

		Expect(completed.Progress).To(Equal(100))
		Expect(completed.ReceiptID).To(Equal("receipt-3"))
		Expect(failed.Progress).To(Equal(100))
	})
})
