package parser

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

func TestParser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Parser Suite")
}

const sampleReceipt = `WHOLESOME MARKET
123 Health Street
Date: 2024-01-15

Fresh Salad Mix      $4.99
Organic Bananas      $3.50
Greek Yogurt         $5.99
Potato Chips         $2.99
Sparkling Water      $1.99

Subtotal: $19.46
Tax: $1.56
Total: $21.02`

var _ = Describe("HeuristicParser", func() {
	var (
		p   *HeuristicParser
		ctx context.Context
	)

	BeforeEach(func() {
		p = NewHeuristicParser()
		ctx = context.Background()
	})

	It("parses vendor, date, totals and line items from a well-formed receipt", func() {
		receipt, items, err := p.Parse(ctx, sampleReceipt)
		Expect(err).NotTo(HaveOccurred())

		Expect(receipt.Vendor).To(Equal("WHOLESOME MARKET"))
		Expect(receipt.Date.Format("2006-01-02")).To(Equal("2024-01-15"))
		Expect(receipt.Subtotal).To(Equal(19.46))
		Expect(receipt.Tax).To(Equal(1.56))
		Expect(receipt.Total).To(Equal(21.02))
		Expect(receipt.Currency).To(Equal("USD"))
		Expect(receipt.IsDegraded).To(BeFalse())

		Expect(items).To(HaveLen(5))
		Expect(items[0].Description).To(Equal("Fresh Salad Mix"))
		Expect(items[0].Price).To(Equal(4.99))
		Expect(items[0].Quantity).To(Equal(1))
		Expect(items[0].Category).To(Equal(domain.CategoryUnknown))
		Expect(items[3].Description).To(Equal("Potato Chips"))
		Expect(items[3].Price).To(Equal(2.99))
	})

	It("does not confuse the subtotal line with the total", func() {
		receipt, _, err := p.Parse(ctx, "Store\nFresh Salad Mix $4.99\nPotato Chips $2.99\nSubtotal: $7.98\nTax: $0.64\nTotal: $8.62")
		Expect(err).NotTo(HaveOccurred())
		Expect(receipt.Subtotal).To(Equal(7.98))
		Expect(receipt.Total).To(Equal(8.62))
		Expect(receipt.Tax).To(Equal(0.64))
	})

	It("returns a degraded zero-totals receipt for unstructured text", func() {
		receipt, items, err := p.Parse(ctx, "this is not a receipt at all\njust some words")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
		Expect(receipt.Total).To(BeZero())
		Expect(receipt.IsDegraded).To(BeTrue())
	})

	It("returns a degraded receipt for empty text", func() {
		receipt, items, err := p.Parse(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
		Expect(receipt.Vendor).To(Equal("Unknown"))
		Expect(receipt.IsDegraded).To(BeTrue())
		Expect(receipt.Date.IsZero()).To(BeFalse())
	})

	It("detects euro receipts", func() {
		receipt, items, err := p.Parse(ctx, "EDEKA MARKT\nBio Joghurt €1.29\nPfand €0.25\nTotal: €1.54")
		Expect(err).NotTo(HaveOccurred())
		Expect(receipt.Currency).To(Equal("EUR"))
		Expect(items).To(HaveLen(2))
		Expect(receipt.Total).To(Equal(1.54))
	})

	It("skips short and payment footer lines", func() {
		_, items, err := p.Parse(ctx, "Store\nOK 1.00\nCash $20.00\nChange $12.02\nGreek Yogurt $5.99")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Description).To(Equal("Greek Yogurt"))
	})
})
