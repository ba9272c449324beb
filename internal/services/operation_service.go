package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/models"
	"kopilka/internal/pagination"
)

// ledgerDateLayout is the fixed-width ISO 8601 day format all ledger dates
// use. Fixed width keeps lexicographic range filters on the date column
// correct.
const ledgerDateLayout = "2006-01-02"

// validLedgerDate reports whether the string is a real calendar day in
// YYYY-MM-DD form; 2024-02-30 is rejected.
func validLedgerDate(date string) bool {
	_, err := time.Parse(ledgerDateLayout, date)
	return err == nil
}

// operationService handles the ledger of dated money movements.
type operationService struct {
	db *gorm.DB
}

// NewOperationService creates a new OperationServicer.
func NewOperationService(db *gorm.DB) OperationServicer {
	return &operationService{db: db}
}

// Create records a money movement. The flow type is not validated against the
// referenced category's type; a mismatch is accepted, matching the historical
// behavior of the ledger.
func (s *operationService) Create(flowType models.FlowType, categoryID string, subcategoryID *string, amount float64, date, description string) (*models.Operation, error) {
	if !flowType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "operation type must be 'income' or 'expense'")
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if !validLedgerDate(date) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be a valid YYYY-MM-DD day")
	}

	if err := s.checkReferences(categoryID, subcategoryID); err != nil {
		return nil, err
	}

	operation := &models.Operation{
		Type:          flowType,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Amount:        amount,
		Date:          date,
		Description:   description,
	}
	if err := s.db.Create(operation).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return operation, nil
}

// checkReferences resolves the category (required) and subcategory (optional)
// ids. Whether the subcategory belongs to the category is deliberately not
// checked.
func (s *operationService) checkReferences(categoryID string, subcategoryID *string) error {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if subcategoryID != nil {
		var subcategory models.Subcategory
		if err := s.db.Where("id = ?", *subcategoryID).First(&subcategory).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrSubcategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return nil
}

const operationDetailSelect = `o.id, o.type, o.category_id, o.subcategory_id,
	o.amount, o.date, o.description,
	c.name AS category_name, s.name AS subcategory_name`

func (s *operationService) detailQuery() *gorm.DB {
	return s.db.Table("operations o").
		Select(operationDetailSelect).
		Joins("JOIN categories c ON o.category_id = c.id").
		Joins("LEFT JOIN subcategories s ON o.subcategory_id = s.id")
}

// List returns operations newest first, filtered by an inclusive date range
// and/or flow type.
func (s *operationService) List(filter OperationFilter, page pagination.PageRequest) (*pagination.PageResponse[models.OperationDetail], error) {
	page.Defaults()

	if filter.StartDate != nil && !validLedgerDate(*filter.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date must be a valid YYYY-MM-DD day")
	}
	if filter.EndDate != nil && !validLedgerDate(*filter.EndDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must be a valid YYYY-MM-DD day")
	}

	countQuery := s.db.Model(&models.Operation{})
	base := s.detailQuery()
	if filter.Type != nil {
		base = base.Where("o.type = ?", *filter.Type)
		countQuery = countQuery.Where("type = ?", *filter.Type)
	}
	if filter.StartDate != nil {
		base = base.Where("o.date >= ?", *filter.StartDate)
		countQuery = countQuery.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		base = base.Where("o.date <= ?", *filter.EndDate)
		countQuery = countQuery.Where("date <= ?", *filter.EndDate)
	}

	var totalItems int64
	if err := countQuery.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var details []models.OperationDetail
	err := base.Order("o.date DESC").Scopes(pagination.Paginate(page)).Scan(&details).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	result := pagination.NewPageResponse(details, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetByID retrieves an operation with category and subcategory names joined.
func (s *operationService) GetByID(id string) (*models.OperationDetail, error) {
	var detail models.OperationDetail
	if err := s.detailQuery().Where("o.id = ?", id).Take(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOperationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &detail, nil
}

// Update rewrites the provided fields, re-validating amount and date exactly
// as Create does. An empty subcategory id clears the reference.
func (s *operationService) Update(id string, amount *float64, date, description, categoryID, subcategoryID *string) (*models.Operation, error) {
	var operation models.Operation
	if err := s.db.Where("id = ?", id).First(&operation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOperationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
		}
		updates["amount"] = *amount
	}
	if date != nil {
		if !validLedgerDate(*date) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be a valid YYYY-MM-DD day")
		}
		updates["date"] = *date
	}
	if description != nil {
		updates["description"] = *description
	}
	if categoryID != nil {
		if err := s.checkReferences(*categoryID, nil); err != nil {
			return nil, err
		}
		updates["category_id"] = *categoryID
	}
	if subcategoryID != nil {
		if *subcategoryID == "" {
			updates["subcategory_id"] = nil
		} else {
			if err := s.checkReferences(operation.CategoryID, subcategoryID); err != nil {
				return nil, err
			}
			updates["subcategory_id"] = *subcategoryID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(&operation).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
	}
	return &operation, nil
}

// Delete removes an operation from the ledger.
func (s *operationService) Delete(id string) error {
	var operation models.Operation
	if err := s.db.Where("id = ?", id).First(&operation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrOperationNotFound
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if err := s.db.Delete(&operation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
