package services

import (
	"kopilka/internal/models"
	"kopilka/internal/pagination"
)

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	Create(name string, flowType models.FlowType) (*models.Category, error)
	List(flowType *models.FlowType) ([]models.Category, error)
	GetByID(id string) (*models.Category, error)
	GetByName(name string) (*models.Category, error)
	Update(id, name string) (*models.Category, error)
	Delete(id string, cascade bool) error
}

// SubcategoryServicer defines the contract for subcategory-related business
// logic. Create is idempotent: the boolean result reports whether a row was
// actually inserted or an existing one was returned.
type SubcategoryServicer interface {
	Create(categoryID, name string) (*models.Subcategory, bool, error)
	List(categoryID *string) ([]models.SubcategoryDetail, error)
	GetByID(id string) (*models.SubcategoryDetail, error)
	GetByName(name string, categoryName *string) (*models.SubcategoryDetail, error)
	Update(id string, name, categoryID *string) (*models.Subcategory, error)
	Delete(id string) error
}

// PeriodServicer defines the contract for the planning period catalog.
// Create is idempotent by name, mirroring SubcategoryServicer.Create.
type PeriodServicer interface {
	Create(name string, periodCount int) (*models.Period, bool, error)
	List() ([]models.Period, error)
	GetByID(id string) (*models.Period, error)
	GetByName(name string) (*models.Period, error)
}

// ReconcileResult counts plans backfilled by ReconcileMissing, split by the
// owning category's flow type.
type ReconcileResult struct {
	IncomeCount  int `json:"income_count"`
	ExpenseCount int `json:"expense_count"`
}

// PlanServicer defines the contract for the budget plan engine.
type PlanServicer interface {
	CreateDefault(subcategoryID string) (*models.Plan, error)
	Create(categoryID, subcategoryID, periodID string, amount float64) (*models.Plan, bool, error)
	GetBySubcategory(subcategoryID string) (*models.PlanDetail, error)
	List(categoryID, periodID *string, page pagination.PageRequest) (*pagination.PageResponse[models.PlanDetail], error)
	Update(planID string, newAmount *float64, newPeriodID *string, newYearForecast *float64) (*models.Plan, error)
	History(planID string) ([]models.PlanHistory, error)
	ReconcileMissing() (*ReconcileResult, error)
}

// OperationFilter holds optional filter parameters for listing operations.
// Dates are inclusive YYYY-MM-DD bounds.
type OperationFilter struct {
	StartDate *string
	EndDate   *string
	Type      *models.FlowType
}

// OperationServicer defines the contract for the operation ledger.
type OperationServicer interface {
	Create(flowType models.FlowType, categoryID string, subcategoryID *string, amount float64, date, description string) (*models.Operation, error)
	List(filter OperationFilter, page pagination.PageRequest) (*pagination.PageResponse[models.OperationDetail], error)
	GetByID(id string) (*models.OperationDetail, error)
	Update(id string, amount *float64, date, description, categoryID, subcategoryID *string) (*models.Operation, error)
	Delete(id string) error
}
