package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/services"
)

// SubcategoryHandler handles subcategory-related requests.
type SubcategoryHandler struct {
	subcategoryService services.SubcategoryServicer
	categoryService    services.CategoryServicer
}

// NewSubcategoryHandler creates a new SubcategoryHandler.
func NewSubcategoryHandler(subcategoryService services.SubcategoryServicer, categoryService services.CategoryServicer) *SubcategoryHandler {
	return &SubcategoryHandler{subcategoryService: subcategoryService, categoryService: categoryService}
}

// CreateSubcategoryRequest represents the request payload for creating a
// subcategory. The owning category is addressed either by id or by name; the
// handler decides which lookup to use, the store never guesses.
type CreateSubcategoryRequest struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Name         string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateSubcategoryRequest represents the request payload for updating a subcategory.
type UpdateSubcategoryRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=100"`
	CategoryID *string `json:"category_id"`
}

// Create handles the creation of a new subcategory and its default plan.
// Recreating an existing name answers 200 with the existing row instead of
// failing.
func (h *SubcategoryHandler) Create(c *gin.Context) {
	var req CreateSubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	categoryID := req.CategoryID
	if categoryID == "" {
		if req.CategoryName == "" {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id or category_name is required"))
			return
		}
		category, err := h.categoryService.GetByName(req.CategoryName)
		if err != nil {
			respondWithError(c, err)
			return
		}
		categoryID = category.ID
	}

	subcategory, created, err := h.subcategoryService.Create(categoryID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{
			"subcategory": subcategory,
			"warning":     "A subcategory with this name already exists in this category",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subcategory": subcategory})
}

// List handles listing subcategories with an optional ?category_id= filter.
func (h *SubcategoryHandler) List(c *gin.Context) {
	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}

	subcategories, err := h.subcategoryService.List(categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategories": subcategories})
}

// Get handles retrieving a subcategory by id.
func (h *SubcategoryHandler) Get(c *gin.Context) {
	subcategory, err := h.subcategoryService.GetByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory})
}

// Update handles renaming a subcategory and/or moving it to another category.
func (h *SubcategoryHandler) Update(c *gin.Context) {
	var req UpdateSubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	subcategory, err := h.subcategoryService.Update(c.Param("id"), req.Name, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory})
}

// Delete handles deleting a subcategory, its plan and the plan's history.
func (h *SubcategoryHandler) Delete(c *gin.Context) {
	if err := h.subcategoryService.Delete(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subcategory deleted successfully"})
}
