package extraction

// MockReceiptText returns a deterministic receipt used when image uploads
// arrive and no vision backend is configured. It exercises every downstream
// pipeline stage: healthy items, junk items, neutral items, and totals.
func MockReceiptText() string {
	return `WHOLESOME MARKET
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
}
