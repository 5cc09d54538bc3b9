package model

import (
	"time"

	"github.com/receipthealth/receipt-processor-service/internal/status"
)

// progressFor maps pipeline phases onto a coarse 0-100 progress value for
// polling clients. The phases report what they know; the numbers are only a
// display hint.
func progressFor(update status.Update) int {
	switch update.State {
	case status.StateCompleted, status.StateError:
		return 100
	}
	switch {
	case update.CategorizedCount != nil:
		return 80
	case update.ItemCount != nil:
		return 60
	case update.OCRTextLength != nil:
		return 40
	default:
		return 10
	}
}

// StatusFromUpdate converts a tracker update to the status poll response
func StatusFromUpdate(documentID string, update status.Update) StatusResponse {
	return StatusResponse{
		DocumentID:       documentID,
		Status:           update.State,
		Message:          update.Message,
		Progress:         progressFor(update),
		OCRTextLength:    update.OCRTextLength,
		ItemCount:        update.ItemCount,
		TotalItems:       update.TotalItems,
		CategorizedCount: update.CategorizedCount,
		ReceiptID:        update.ReceiptID,
		UpdatedAt:        update.UpdatedAt.Format(time.RFC3339),
	}
}
