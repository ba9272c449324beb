package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/pagination"
	"kopilka/internal/services"
)

// PlanHandler handles budget plan requests.
type PlanHandler struct {
	planService services.PlanServicer
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService services.PlanServicer) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// CreatePlanRequest represents the request payload for creating a plan.
type CreatePlanRequest struct {
	CategoryID    string  `json:"category_id" binding:"required"`
	SubcategoryID string  `json:"subcategory_id" binding:"required"`
	PeriodID      string  `json:"period_id" binding:"required"`
	Amount        float64 `json:"amount"`
}

// UpdatePlanRequest represents the request payload for updating a plan. All
// fields are optional; year_forecast, when present, wins over any recomputed
// value.
type UpdatePlanRequest struct {
	Amount       *float64 `json:"amount"`
	PeriodID     *string  `json:"period_id"`
	YearForecast *float64 `json:"year_forecast"`
}

// Create handles the creation of a plan for a subcategory/period pair.
// Recreating an existing pair answers 200 with the existing row.
func (h *PlanHandler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	plan, created, err := h.planService.Create(req.CategoryID, req.SubcategoryID, req.PeriodID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{
			"plan":    plan,
			"warning": "A plan for this subcategory and period already exists",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// List handles listing plans with optional ?category_id= and ?period_id=
// filters, paginated.
func (h *PlanHandler) List(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	var categoryID, periodID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}
	if v := c.Query("period_id"); v != "" {
		periodID = &v
	}

	plans, err := h.planService.List(categoryID, periodID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

// GetBySubcategory handles retrieving the plan attached to a subcategory.
func (h *PlanHandler) GetBySubcategory(c *gin.Context) {
	plan, err := h.planService.GetBySubcategory(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// Update handles changing a plan's amount, period and/or year forecast.
func (h *PlanHandler) Update(c *gin.Context) {
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	plan, err := h.planService.Update(c.Param("id"), req.Amount, req.PeriodID, req.YearForecast)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// History handles listing a plan's amount change history, newest first.
func (h *PlanHandler) History(c *gin.Context) {
	history, err := h.planService.History(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Reconcile handles backfilling zero-amount plans for subcategories that have
// none.
func (h *PlanHandler) Reconcile(c *gin.Context) {
	result, err := h.planService.ReconcileMissing()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
