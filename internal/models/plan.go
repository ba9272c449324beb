package models

import "time"

// Plan is the budget assigned to one subcategory for one period. The invariant
// year_forecast == planned_amount * period.period_count holds after every
// mutation unless the caller explicitly overrides the forecast.
type Plan struct {
	Base
	CategoryID    string  `gorm:"type:uuid;not null" json:"category_id"`
	SubcategoryID string  `gorm:"type:uuid;not null;index;uniqueIndex:idx_plan_subcategory_period" json:"subcategory_id"`
	PeriodID      string  `gorm:"type:uuid;not null;index;uniqueIndex:idx_plan_subcategory_period" json:"period_id"`
	PlannedAmount float64 `gorm:"not null" json:"planned_amount"`
	YearForecast  float64 `gorm:"not null" json:"year_forecast"`
}

// TableName keeps the storage layout compatible with the persisted contract.
func (Plan) TableName() string { return "plan_subcategories" }

// PlanHistory is an append-only audit record written when an update changes a
// plan's amount. Rows are immutable once written.
type PlanHistory struct {
	Base
	PlanID    string    `gorm:"column:plan_subcategory_id;type:uuid;not null;index" json:"plan_id"`
	ChangedAt time.Time `gorm:"not null" json:"changed_at"`
	OldAmount float64   `gorm:"not null" json:"old_amount"`
	NewAmount float64   `gorm:"not null" json:"new_amount"`
}

func (PlanHistory) TableName() string { return "plan_subcategory_history" }

// PlanDetail is the read-side projection of a plan with period and
// category/subcategory names joined in. CategoryType is computed at read time
// rather than stored, so it can never drift from the category table.
type PlanDetail struct {
	ID                string   `json:"id"`
	CategoryID        string   `json:"category_id"`
	SubcategoryID     string   `json:"subcategory_id"`
	PeriodID          string   `json:"period_id"`
	PlannedAmount     float64  `json:"planned_amount"`
	YearForecast      float64  `json:"year_forecast"`
	PeriodName        string   `json:"period_name"`
	PeriodCount       int      `json:"period_count"`
	CategoryName      string   `json:"category_name"`
	SubcategoryName   string   `json:"subcategory_name"`
	CategoryType      FlowType `json:"category_type"`
	MonthlyEquivalent float64  `gorm:"-" json:"monthly_equivalent"`
}

// MonthlyEquivalentOf normalizes a per-period amount to its monthly figure.
// The catalog guarantees period_count >= 1; a zero or negative count yields 0.
func MonthlyEquivalentOf(amount float64, periodCount int) float64 {
	if periodCount <= 0 {
		return 0
	}
	return amount * (12 / float64(periodCount))
}
