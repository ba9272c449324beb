package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/logger"
	"kopilka/internal/models"
)

// subcategoryService handles subcategory-related business logic. It owns the
// coupling to the plan engine: every subcategory it creates ends up with
// exactly one plan.
type subcategoryService struct {
	db    *gorm.DB
	plans PlanServicer
}

// NewSubcategoryService creates a new SubcategoryServicer.
func NewSubcategoryService(db *gorm.DB, plans PlanServicer) SubcategoryServicer {
	return &subcategoryService{db: db, plans: plans}
}

// Create inserts a subcategory under the given category and synchronously
// creates its default plan. The name check within the category is
// case-insensitive and idempotent: an existing match is returned with
// created=false instead of an error.
func (s *subcategoryService) Create(categoryID, name string) (*models.Subcategory, bool, error) {
	if name == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory name is required")
	}

	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrCategoryNotFound
		}
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var existing models.Subcategory
	err := s.db.Where("category_id = ? AND LOWER(name) = LOWER(?)", categoryID, name).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	subcategory := &models.Subcategory{CategoryID: categoryID, Name: name}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if _, err := s.plans.CreateDefault(subcategory.ID); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrNoPeriodAvailable.Code {
			// The subcategory stands; ReconcileMissing closes the gap once
			// the period catalog is seeded.
			logger.Get().Warnw("subcategory created without a plan: period catalog is empty",
				"subcategory_id", subcategory.ID,
			)
			return subcategory, true, nil
		}
		return nil, false, err
	}

	return subcategory, true, nil
}

const subcategoryDetailSelect = `s.id, s.category_id, s.name,
	c.name AS category_name, c.type AS category_type`

func (s *subcategoryService) detailQuery() *gorm.DB {
	return s.db.Table("subcategories s").
		Select(subcategoryDetailSelect).
		Joins("JOIN categories c ON s.category_id = c.id")
}

// List returns subcategories with the owning category denormalized. Ordering
// is (category name, subcategory name) across the whole store, or plain name
// within one category.
func (s *subcategoryService) List(categoryID *string) ([]models.SubcategoryDetail, error) {
	base := s.detailQuery()
	if categoryID != nil {
		base = base.Where("s.category_id = ?", *categoryID).Order("s.name")
	} else {
		base = base.Order("c.name, s.name")
	}

	var details []models.SubcategoryDetail
	if err := base.Scan(&details).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return details, nil
}

// GetByID retrieves a subcategory with its category denormalized.
func (s *subcategoryService) GetByID(id string) (*models.SubcategoryDetail, error) {
	var detail models.SubcategoryDetail
	if err := s.detailQuery().Where("s.id = ?", id).Take(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &detail, nil
}

// GetByName retrieves a subcategory by name, optionally disambiguated by the
// owning category's name.
func (s *subcategoryService) GetByName(name string, categoryName *string) (*models.SubcategoryDetail, error) {
	base := s.detailQuery().Where("s.name = ?", name)
	if categoryName != nil {
		base = base.Where("c.name = ?", *categoryName)
	}

	var detail models.SubcategoryDetail
	if err := base.Take(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &detail, nil
}

// Update renames a subcategory and/or moves it to another category. A
// reassigned category id must resolve to an existing category.
func (s *subcategoryService) Update(id string, name, categoryID *string) (*models.Subcategory, error) {
	var subcategory models.Subcategory
	if err := s.db.Where("id = ?", id).First(&subcategory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory name is required")
		}
		updates["name"] = *name
	}
	if categoryID != nil {
		var target models.Category
		if err := s.db.Where("id = ?", *categoryID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "target category not found")
			}
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
		updates["category_id"] = *categoryID
	}

	if len(updates) > 0 {
		if err := s.db.Model(&subcategory).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return &subcategory, nil
}

// Delete removes a subcategory together with its plan and the plan's history
// in one transaction.
func (s *subcategoryService) Delete(id string) error {
	var subcategory models.Subcategory
	if err := s.db.Where("id = ?", id).First(&subcategory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSubcategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		planIDs := tx.Model(&models.Plan{}).Select("id").Where("subcategory_id = ?", id)
		if err := tx.Where("plan_subcategory_id IN (?)", planIDs).Delete(&models.PlanHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subcategory_id = ?", id).Delete(&models.Plan{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subcategory).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
