package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"kopilka/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestCategory creates a category of the given flow type with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, flowType models.FlowType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name: fmt.Sprintf("Test Category %d", nextID()),
		Type: flowType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestSubcategory creates a subcategory under the given category.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, categoryID string) *models.Subcategory {
	t.Helper()

	subcategory := &models.Subcategory{
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Subcategory %d", nextID()),
	}
	if err := db.Create(subcategory).Error; err != nil {
		t.Fatalf("failed to create test subcategory: %v", err)
	}
	return subcategory
}

// CreateTestPeriod creates a planning period with the given name and yearly count.
func CreateTestPeriod(t *testing.T, db *gorm.DB, name string, periodCount int) *models.Period {
	t.Helper()

	period := &models.Period{
		Name:        name,
		PeriodCount: periodCount,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestPlan creates a plan with the forecast already consistent with the
// period count.
func CreateTestPlan(t *testing.T, db *gorm.DB, categoryID, subcategoryID, periodID string, amount float64, periodCount int) *models.Plan {
	t.Helper()

	plan := &models.Plan{
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		PeriodID:      periodID,
		PlannedAmount: amount,
		YearForecast:  amount * float64(periodCount),
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}

// CreateTestOperation creates a ledger operation on the given date.
func CreateTestOperation(t *testing.T, db *gorm.DB, flowType models.FlowType, categoryID string, subcategoryID *string, amount float64, date string) *models.Operation {
	t.Helper()

	operation := &models.Operation{
		Type:          flowType,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Amount:        amount,
		Date:          date,
		Description:   fmt.Sprintf("Test Operation %d", nextID()),
	}
	if err := db.Create(operation).Error; err != nil {
		t.Fatalf("failed to create test operation: %v", err)
	}
	return operation
}
