package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/models"
	"kopilka/internal/pagination"
	"kopilka/internal/services"
)

// OperationHandler handles operation ledger requests.
type OperationHandler struct {
	operationService services.OperationServicer
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(operationService services.OperationServicer) *OperationHandler {
	return &OperationHandler{operationService: operationService}
}

// CreateOperationRequest represents the request payload for recording an
// operation.
type CreateOperationRequest struct {
	Type          models.FlowType `json:"type" binding:"required,flow_type"`
	CategoryID    string          `json:"category_id" binding:"required"`
	SubcategoryID *string         `json:"subcategory_id"`
	Amount        float64         `json:"amount" binding:"required,gt=0"`
	Date          string          `json:"date" binding:"required,ledger_date"`
	Description   string          `json:"description"`
}

// UpdateOperationRequest represents the request payload for editing an
// operation. All fields are optional; an empty subcategory_id clears the
// reference.
type UpdateOperationRequest struct {
	Amount        *float64 `json:"amount" binding:"omitempty,gt=0"`
	Date          *string  `json:"date" binding:"omitempty,ledger_date"`
	Description   *string  `json:"description"`
	CategoryID    *string  `json:"category_id"`
	SubcategoryID *string  `json:"subcategory_id"`
}

// Create handles recording a new income or expense operation.
func (h *OperationHandler) Create(c *gin.Context) {
	var req CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	operation, err := h.operationService.Create(req.Type, req.CategoryID, req.SubcategoryID, req.Amount, req.Date, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"operation": operation})
}

// List handles listing operations newest first, with optional ?start_date=,
// ?end_date= and ?type= filters, paginated.
func (h *OperationHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	var filter services.OperationFilter
	if v := c.Query("start_date"); v != "" {
		filter.StartDate = &v
	}
	if v := c.Query("end_date"); v != "" {
		filter.EndDate = &v
	}
	if v := c.Query("type"); v != "" {
		t := models.FlowType(v)
		if !t.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be 'income' or 'expense'"))
			return
		}
		filter.Type = &t
	}

	operations, err := h.operationService.List(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, operations)
}

// Get handles retrieving an operation by id.
func (h *OperationHandler) Get(c *gin.Context) {
	operation, err := h.operationService.GetByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operation": operation})
}

// Update handles editing an operation.
func (h *OperationHandler) Update(c *gin.Context) {
	var req UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	operation, err := h.operationService.Update(c.Param("id"), req.Amount, req.Date, req.Description, req.CategoryID, req.SubcategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"operation": operation})
}

// Delete handles removing an operation from the ledger.
func (h *OperationHandler) Delete(c *gin.Context) {
	if err := h.operationService.Delete(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Operation deleted successfully"})
}
