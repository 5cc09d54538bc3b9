package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/receipthealth/receipt-processor-service/internal/model"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
	"github.com/receipthealth/receipt-processor-service/internal/service"
)

// ReceiptHandler handles HTTP requests for receipt-related operations
type ReceiptHandler struct {
	receiptService service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
	}
}

// ListReceipts handles the GET /v1/receipts endpoint
// @Summary List processed receipts
// @Description Returns all processed receipts with health score, line-item count, and category summary
// @Tags receipts
// @Produce json
// @Success 200 {object} model.ReceiptsListResponse "Receipts"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts [get]
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	entries, err := h.receiptService.ListReceipts(c.Request.Context())
	if err != nil {
		logError(c, "list_receipts", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}
	respondOK(c, model.ReceiptListFromDomain(entries))
}

// GetReceipt handles the GET /v1/receipts/:receiptId endpoint
// @Summary Get a receipt
// @Description Returns one receipt with its line items and category summary
// @Tags receipts
// @Produce json
// @Param receiptId path string true "Receipt ID"
// @Success 200 {object} model.ReceiptResponse "Receipt"
// @Failure 404 {object} model.ErrorResponse "Receipt not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{receiptId} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	receiptID, err := getPathParam(c, "receiptId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	receipt, summary, err := h.receiptService.GetReceiptByID(c.Request.Context(), receiptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		logError(c, "get_receipt", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, model.ReceiptFromDomain(receipt, summary))
}

// DeleteReceipt handles the DELETE /v1/receipts/:receiptId endpoint
// @Summary Delete a receipt
// @Description Removes a receipt along with its line items, category summary, and owning document
// @Tags receipts
// @Produce json
// @Param receiptId path string true "Receipt ID"
// @Success 204 "Deleted"
// @Failure 404 {object} model.ErrorResponse "Receipt not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{receiptId} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *gin.Context) {
	receiptID, err := getPathParam(c, "receiptId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.receiptService.DeleteReceipt(c.Request.Context(), receiptID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		logError(c, "delete_receipt", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondNoContent(c)
}

// CorrectItemCategory handles the PUT /v1/receipts/:receiptId/items/:itemId/category endpoint
// @Summary Correct a line item's category
// @Description Reassigns one line item's category and recomputes the receipt's category summary and health score
// @Tags receipts
// @Accept json
// @Produce json
// @Param receiptId path string true "Receipt ID"
// @Param itemId path string true "Line item ID"
// @Param body body model.CategoryCorrectionRequest true "New category"
// @Success 200 {object} model.ReceiptResponse "Updated receipt"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 404 {object} model.ErrorResponse "Receipt or item not found"
// @Failure 422 {object} model.ErrorResponse "Unknown category"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{receiptId}/items/{itemId}/category [put]
func (h *ReceiptHandler) CorrectItemCategory(c *gin.Context) {
	receiptID, err := getPathParam(c, "receiptId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	itemID, err := getPathParam(c, "itemId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var input model.CategoryCorrectionRequest
	if err := bindJSON(c, &input); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("category", "category is required"))
		return
	}

	receipt, summary, err := h.receiptService.CorrectItemCategory(c.Request.Context(), receiptID, itemID, input.Category)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		var serviceErr *service.ReceiptServiceError
		if errors.As(err, &serviceErr) && serviceErr.Op == "validate_category" {
			respondUnprocessableEntity(c, serviceErr.Err.Error(), newErrorDetail("category", "must be one of Healthy, Junk, Other, Unknown"))
			return
		}
		logError(c, "correct_item_category", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, model.ReceiptFromDomain(receipt, summary))
}
