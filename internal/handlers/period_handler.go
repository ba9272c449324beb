package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/services"
)

// PeriodHandler handles planning period catalog requests.
type PeriodHandler struct {
	periodService services.PeriodServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService}
}

// CreatePeriodRequest represents the request payload for creating a period.
type CreatePeriodRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	PeriodCount int    `json:"period_count" binding:"required,min=1"`
}

// Create handles adding a period to the catalog. Recreating an existing name
// answers 200 with the existing row.
func (h *PeriodHandler) Create(c *gin.Context) {
	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, created, err := h.periodService.Create(req.Name, req.PeriodCount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{
			"period":  period,
			"warning": "A period with this name already exists",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// List handles listing the period catalog ordered by period_count.
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periodService.List()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// Get handles retrieving a period by id.
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periodService.GetByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}
