package handler

import (
	"net/http"

	financeapp "github.com/finadmin/backend/internal/application/finance"
	"github.com/finadmin/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BillHandler handles vendor bill API endpoints
type BillHandler struct {
	BaseHandler
	service *financeapp.BillService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(service *financeapp.BillService) *BillHandler {
	return &BillHandler{
		service: service,
	}
}

// ListBills returns a paginated list of bills
func (h *BillHandler) ListBills(c *gin.Context) {
	var filter financeapp.BillListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	bills, total, err := h.service.ListBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, bills, total, filter.Page, filter.PageSize)
}

// GetBill returns a single bill by its ID
func (h *BillHandler) GetBill(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	bill, err := h.service.GetBillByID(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// CreateBill creates a new vendor bill
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req financeapp.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	bill, err := h.service.CreateBill(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, bill)
}

// UpdateBill updates an existing bill
func (h *BillHandler) UpdateBill(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	var req financeapp.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	bill, err := h.service.UpdateBill(c.Request.Context(), billID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// MarkBillPaid marks a bill as paid without recording a payment against it
func (h *BillHandler) MarkBillPaid(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	bill, err := h.service.MarkBillPaid(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// DeleteBill removes a bill that has no recorded payments
func (h *BillHandler) DeleteBill(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid bill ID")
		return
	}

	if err := h.service.DeleteBill(c.Request.Context(), billID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, nil)
}

// RegisterRoutes registers all bill routes
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.GET("", h.ListBills)
		bills.GET("/:id", h.GetBill)
		bills.POST("", h.CreateBill)
		bills.PUT("/:id", h.UpdateBill)
		bills.POST("/:id/pay", h.MarkBillPaid)
		bills.DELETE("/:id", h.DeleteBill)
	}
}
