package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// Create creates a new category. Duplicate names are allowed; the generated
// id is the only identity.
func (s *categoryService) Create(name string, flowType models.FlowType) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !flowType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be 'income' or 'expense'")
	}

	category := &models.Category{Name: name, Type: flowType}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return category, nil
}

// List returns categories ordered by name, optionally filtered by flow type.
func (s *categoryService) List(flowType *models.FlowType) ([]models.Category, error) {
	base := s.db.Model(&models.Category{})
	if flowType != nil {
		base = base.Where("type = ?", *flowType)
	}

	var categories []models.Category
	if err := base.Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return categories, nil
}

// GetByID retrieves a category by id.
func (s *categoryService) GetByID(id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &category, nil
}

// GetByName retrieves a category by exact name. When duplicate names exist the
// oldest row wins; callers needing precision should look up by id.
func (s *categoryService) GetByName(name string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &category, nil
}

// Update renames a category. An unchanged name is a no-op success.
func (s *categoryService) Update(id, name string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if name == category.Name {
		return category, nil
	}

	if err := s.db.Model(category).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return category, nil
}

// Delete removes a category. When the category owns subcategories the caller
// must have authorized the cascade; the cascade removes plan history, plans
// and subcategories in one transaction before the category row itself.
func (s *categoryService) Delete(id string, cascade bool) error {
	category, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var subCount int64
	if err := s.db.Model(&models.Subcategory{}).Where("category_id = ?", id).Count(&subCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if subCount > 0 && !cascade {
		return apperrors.ErrCategoryHasSubcategories
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		planIDs := tx.Model(&models.Plan{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("plan_subcategory_id IN (?)", planIDs).Delete(&models.PlanHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Plan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Subcategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
