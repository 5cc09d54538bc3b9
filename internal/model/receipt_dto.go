package model

import (
	"time"

	"github.com/receipthealth/receipt-processor-service/internal/domain"
)

// UploadFileResult is the per-file outcome within an upload response
type UploadFileResult struct {
	DocumentID string `json:"documentId,omitempty"`
	FileName   string `json:"fileName"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// UploadResponse is returned by the multi-file upload endpoint
type UploadResponse struct {
	Results []UploadFileResult `json:"results"`
}

// DocumentResponse represents one uploaded document
type DocumentResponse struct {
	ID            string `json:"id"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
	UploadedAt    string `json:"uploadedAt"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// DocumentsListResponse represents the list of uploaded documents
type DocumentsListResponse struct {
	Data []DocumentResponse `json:"data"`
}

// StatusResponse is the processing status poll payload
type StatusResponse struct {
	DocumentID       string `json:"documentId"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	Progress         int    `json:"progress"`
	OCRTextLength    *int   `json:"ocrTextLength,omitempty"`
	ItemCount        *int   `json:"itemCount,omitempty"`
	TotalItems       *int   `json:"totalItems,omitempty"`
	CategorizedCount *int   `json:"categorizedCount,omitempty"`
	ReceiptID        string `json:"receiptId,omitempty"`
	UpdatedAt        string `json:"updatedAt"`
}

// LineItemResponse represents a single receipt line item
type LineItemResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Qty         int     `json:"qty"`
	Category    string  `json:"category"`
}

// CategorySummaryResponse represents per-category totals for one receipt
type CategorySummaryResponse struct {
	HealthyTotal float64 `json:"healthyTotal"`
	JunkTotal    float64 `json:"junkTotal"`
	OtherTotal   float64 `json:"otherTotal"`
	UnknownTotal float64 `json:"unknownTotal"`
	HealthyCount int     `json:"healthyCount"`
	JunkCount    int     `json:"junkCount"`
	OtherCount   int     `json:"otherCount"`
	UnknownCount int     `json:"unknownCount"`
}

// ReceiptResponse represents a fully processed receipt
type ReceiptResponse struct {
	ID          string                   `json:"id"`
	DocumentID  string                   `json:"documentId"`
	Vendor      string                   `json:"vendor"`
	Date        string                   `json:"date"`
	Subtotal    float64                  `json:"subtotal"`
	Tax         float64                  `json:"tax"`
	Total       float64                  `json:"total"`
	Currency    string                   `json:"currency"`
	HealthScore float64                  `json:"healthScore"`
	IsDegraded  bool                     `json:"isDegraded"`
	ProcessedAt string                   `json:"processedAt"`
	Items       []LineItemResponse       `json:"items,omitempty"`
	Summary     *CategorySummaryResponse `json:"categorySummary,omitempty"`
}

// ReceiptListItemResponse is one row of the receipt list
type ReceiptListItemResponse struct {
	ID               string                   `json:"id"`
	DocumentID       string                   `json:"documentId"`
	DocumentFileName string                   `json:"documentFileName"`
	Vendor           string                   `json:"vendor"`
	Date             string                   `json:"date"`
	Total            float64                  `json:"total"`
	Currency         string                   `json:"currency"`
	HealthScore      float64                  `json:"healthScore"`
	IsDegraded       bool                     `json:"isDegraded"`
	LineItemCount    int                      `json:"lineItemCount"`
	Summary          *CategorySummaryResponse `json:"categorySummary,omitempty"`
}

// ReceiptsListResponse represents the list of processed receipts
type ReceiptsListResponse struct {
	Data []ReceiptListItemResponse `json:"data"`
}

// CategoryCorrectionRequest is the body of a line-item category correction
type CategoryCorrectionRequest struct {
	Category string `json:"category" binding:"required"`
}

// MonthlySpendResponse represents the monthly-spend analytics payload
type MonthlySpendResponse struct {
	Year   int                `json:"year"`
	Months []MonthlySpendItem `json:"months"`
}

// MonthlySpendItem is one month's aggregate
type MonthlySpendItem struct {
	Month          int     `json:"month"`
	Total          float64 `json:"total"`
	ReceiptCount   int     `json:"receiptCount"`
	AvgHealthScore float64 `json:"avgHealthScore"`
}

// CategoryBreakdownResponse represents the category-breakdown analytics payload
type CategoryBreakdownResponse struct {
	Categories []CategoryBreakdownItem `json:"categories"`
}

// CategoryBreakdownItem is one category's aggregate across all receipts
type CategoryBreakdownItem struct {
	Category  string  `json:"category"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DocumentFromDomain converts a domain Document to its response form
func DocumentFromDomain(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		ContentType:   doc.ContentType,
		FileSizeBytes: doc.FileSizeBytes,
		UploadedAt:    doc.UploadedAt.Format(time.RFC3339),
		Status:        doc.Status,
		ErrorMessage:  doc.ErrorMessage,
	}
}

// SummaryFromDomain converts a domain CategorySummary to its response form
func SummaryFromDomain(summary *domain.CategorySummary) *CategorySummaryResponse {
	if summary == nil {
		return nil
	}
	return &CategorySummaryResponse{
		HealthyTotal: summary.HealthyTotal,
		JunkTotal:    summary.JunkTotal,
		OtherTotal:   summary.OtherTotal,
		UnknownTotal: summary.UnknownTotal,
		HealthyCount: summary.HealthyCount,
		JunkCount:    summary.JunkCount,
		OtherCount:   summary.OtherCount,
		UnknownCount: summary.UnknownCount,
	}
}

// ReceiptFromDomain converts a domain Receipt (with items) to its response form
func ReceiptFromDomain(receipt *domain.Receipt, summary *domain.CategorySummary) ReceiptResponse {
	items := make([]LineItemResponse, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Price:       item.Price,
			Qty:         item.Quantity,
			Category:    item.Category,
		})
	}
	return ReceiptResponse{
		ID:          receipt.ID,
		DocumentID:  receipt.DocumentID,
		Vendor:      receipt.Vendor,
		Date:        receipt.Date.Format("2006-01-02"),
		Subtotal:    receipt.Subtotal,
		Tax:         receipt.Tax,
		Total:       receipt.Total,
		Currency:    receipt.Currency,
		HealthScore: receipt.HealthScore,
		IsDegraded:  receipt.IsDegraded,
		ProcessedAt: receipt.ProcessedAt.Format(time.RFC3339),
		Items:       items,
		Summary:     SummaryFromDomain(summary),
	}
}

// ReceiptListFromDomain converts receipt list entries to their response form
func ReceiptListFromDomain(entries []domain.ReceiptListEntry) ReceiptsListResponse {
	data := make([]ReceiptListItemResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, ReceiptListItemResponse{
			ID:               entry.ID,
			DocumentID:       entry.DocumentID,
			DocumentFileName: entry.DocumentFileName,
			Vendor:           entry.Vendor,
			Date:             entry.Date.Format("2006-01-02"),
			Total:            entry.Total,
			Currency:         entry.Currency,
			HealthScore:      entry.HealthScore,
			IsDegraded:       entry.IsDegraded,
			LineItemCount:    entry.LineItemCount,
			Summary:          SummaryFromDomain(entry.Summary),
		})
	}
	return ReceiptsListResponse{Data: data}
}
