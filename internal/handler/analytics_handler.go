package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/receipthealth/receipt-processor-service/internal/model"
	"github.com/receipthealth/receipt-processor-service/internal/service"
)

// AnalyticsHandler handles HTTP requests for spending analytics
type AnalyticsHandler struct {
	receiptService service.ReceiptService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(receiptService service.ReceiptService) *AnalyticsHandler {
	return &AnalyticsHandler{
		receiptService: receiptService,
	}
}

// GetMonthlySpend handles the GET /v1/analytics/monthly-spend endpoint
// @Summary Monthly spending
// @Description Returns per-month spending totals and average health score for a year, current year by default
// @Tags analytics
// @Produce json
// @Param year query int false "Year (YYYY)"
// @Success 200 {object} model.MonthlySpendResponse "Monthly totals"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/analytics/monthly-spend [get]
func (h *AnalyticsHandler) GetMonthlySpend(c *gin.Context) {
	year, err := getQueryInt(c, "year", time.Now().UTC().Year())
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("year", err.Error()))
		return
	}
	if year < 2000 || year > 2100 {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("year", "year out of range"))
		return
	}

	months, err := h.receiptService.GetMonthlySpend(c.Request.Context(), year)
	if err != nil {
		logError(c, "get_monthly_spend", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	response := model.MonthlySpendResponse{Year: year, Months: make([]model.MonthlySpendItem, 0, len(months))}
	for _, m := range months {
		response.Months = append(response.Months, model.MonthlySpendItem{
			Month:          m.Month,
			Total:          m.Total,
			ReceiptCount:   m.ReceiptCount,
			AvgHealthScore: m.AvgHealthScore,
		})
	}
	respondOK(c, response)
}

// GetCategoryBreakdown handles the GET /v1/analytics/category-breakdown endpoint
// @Summary Category breakdown
// @Description Returns aggregate spending totals and item counts per category across all receipts
// @Tags analytics
// @Produce json
// @Success 200 {object} model.CategoryBreakdownResponse "Category aggregates"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/analytics/category-breakdown [get]
func (h *AnalyticsHandler) GetCategoryBreakdown(c *gin.Context) {
	breakdown, err := h.receiptService.GetCategoryBreakdown(c.Request.Context())
	if err != nil {
		logError(c, "get_category_breakdown", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	response := model.CategoryBreakdownResponse{Categories: make([]model.CategoryBreakdownItem, 0, len(breakdown))}
	for _, item := range breakdown {
		response.Categories = append(response.Categories, model.CategoryBreakdownItem{
			Category:  item.Category,
			Total:     item.Total,
			ItemCount: item.ItemCount,
		})
	}
	respondOK(c, response)
}
