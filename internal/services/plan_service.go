package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/logger"
	"kopilka/internal/models"
	"kopilka/internal/pagination"
)

// DefaultPeriodPolicy decides which period newly created plans start with:
// the period named PreferredName when it exists, otherwise the shortest
// period in the catalog. The policy is injected at construction and resolved
// once, not re-queried by name on every call.
type DefaultPeriodPolicy struct {
	PreferredName string
}

// planService is the budget plan engine. It maintains one plan per
// subcategory, keeps year_forecast consistent with planned_amount and the
// period multiplier, and appends an immutable history record whenever an
// update changes the amount.
type planService struct {
	db     *gorm.DB
	policy DefaultPeriodPolicy

	// Cached result of the first successful policy resolution. There is a
	// single logical actor, so no locking is needed.
	defaultPeriod *models.Period
}

// NewPlanService creates a new PlanServicer with the given default-period policy.
func NewPlanService(db *gorm.DB, policy DefaultPeriodPolicy) PlanServicer {
	return &planService{db: db, policy: policy}
}

// resolveDefaultPeriod applies the policy against the catalog and caches the
// outcome. An empty catalog fails with NO_PERIOD_AVAILABLE.
func (s *planService) resolveDefaultPeriod() (*models.Period, error) {
	if s.defaultPeriod != nil {
		return s.defaultPeriod, nil
	}

	var period models.Period
	err := s.db.Where("name = ?", s.policy.PreferredName).First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Order("period_count").First(&period).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoPeriodAvailable
		}
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	s.defaultPeriod = &period
	return s.defaultPeriod, nil
}

// CreateDefault guarantees the subcategory has a plan: amount 0, forecast 0,
// default period. Idempotent: an existing plan is returned untouched, which
// is what makes bulk backfill via ReconcileMissing safe.
func (s *planService) CreateDefault(subcategoryID string) (*models.Plan, error) {
	var subcategory models.Subcategory
	if err := s.db.Where("id = ?", subcategoryID).First(&subcategory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var existing models.Plan
	err := s.db.Where("subcategory_id = ?", subcategoryID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	period, err := s.resolveDefaultPeriod()
	if err != nil {
		return nil, err
	}

	plan := &models.Plan{
		CategoryID:    subcategory.CategoryID,
		SubcategoryID: subcategoryID,
		PeriodID:      period.ID,
		PlannedAmount: 0,
		YearForecast:  0,
	}
	if err := s.db.Create(plan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return plan, nil
}

// Create creates a plan with an explicit period and amount. The
// one-plan-per-subcategory invariant is enforced here at the API boundary,
// not only by the storage uniqueness constraint: an existing plan is returned
// with created=false instead of an error.
func (s *planService) Create(categoryID, subcategoryID, periodID string, amount float64) (*models.Plan, bool, error) {
	if amount < 0 {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "planned amount must not be negative")
	}

	var existing models.Plan
	err := s.db.Where("subcategory_id = ?", subcategoryID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var period models.Period
	if err := s.db.Where("id = ?", periodID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.ErrPeriodNotFound
		}
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	plan := &models.Plan{
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		PeriodID:      periodID,
		PlannedAmount: amount,
		YearForecast:  amount * float64(period.PeriodCount),
	}
	if err := s.db.Create(plan).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return plan, true, nil
}

const planDetailSelect = `ps.id, ps.category_id, ps.subcategory_id, ps.period_id,
	ps.planned_amount, ps.year_forecast,
	p.name AS period_name, p.period_count,
	c.name AS category_name, s.name AS subcategory_name,
	c.type AS category_type`

func (s *planService) detailQuery() *gorm.DB {
	return s.db.Table("plan_subcategories ps").
		Select(planDetailSelect).
		Joins("JOIN periods p ON ps.period_id = p.id").
		Joins("JOIN categories c ON ps.category_id = c.id").
		Joins("JOIN subcategories s ON ps.subcategory_id = s.id")
}

// GetBySubcategory returns the subcategory's plan with period and
// category/subcategory names denormalized, plus the read-time monthly
// equivalent.
func (s *planService) GetBySubcategory(subcategoryID string) (*models.PlanDetail, error) {
	var detail models.PlanDetail
	err := s.detailQuery().Where("ps.subcategory_id = ?", subcategoryID).Take(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	detail.MonthlyEquivalent = models.MonthlyEquivalentOf(detail.PlannedAmount, detail.PeriodCount)
	return &detail, nil
}

// List returns plans filtered by category and/or period. Ordering is always
// category type descending (income before expense), then category name, then
// subcategory name; the grouped report views depend on it.
func (s *planService) List(categoryID, periodID *string, page pagination.PageRequest) (*pagination.PageResponse[models.PlanDetail], error) {
	page.Defaults()

	countQuery := s.db.Model(&models.Plan{})
	base := s.detailQuery()
	if categoryID != nil {
		base = base.Where("ps.category_id = ?", *categoryID)
		countQuery = countQuery.Where("category_id = ?", *categoryID)
	}
	if periodID != nil {
		base = base.Where("ps.period_id = ?", *periodID)
		countQuery = countQuery.Where("period_id = ?", *periodID)
	}

	var totalItems int64
	if err := countQuery.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	var details []models.PlanDetail
	err := base.Order("c.type DESC, c.name, s.name").
		Scopes(pagination.Paginate(page)).
		Scan(&details).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	for i := range details {
		details[i].MonthlyEquivalent = models.MonthlyEquivalentOf(details[i].PlannedAmount, details[i].PeriodCount)
	}

	result := pagination.NewPageResponse(details, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Update mutates a plan's amount, period and/or forecast. The new forecast is
// resolved in this order:
//  1. a new period recomputes it from the updated amount and that period;
//  2. an explicit forecast value is used verbatim (caller-trusted override);
//  3. a new amount alone recomputes it against the unchanged period;
//  4. otherwise the forecast is untouched.
//
// A history record is appended iff a new amount was supplied and differs from
// the stored one; period-only changes leave the history alone.
func (s *planService) Update(planID string, newAmount *float64, newPeriodID *string, newYearForecast *float64) (*models.Plan, error) {
	if newAmount != nil && *newAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "planned amount must not be negative")
	}

	var plan models.Plan
	if err := s.db.Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	oldAmount := plan.PlannedAmount

	updatedAmount := oldAmount
	if newAmount != nil {
		updatedAmount = *newAmount
	}
	updatedPeriodID := plan.PeriodID
	if newPeriodID != nil {
		updatedPeriodID = *newPeriodID
	}

	var updatedForecast float64
	switch {
	case newPeriodID != nil:
		period, err := s.periodByID(*newPeriodID)
		if err != nil {
			return nil, err
		}
		updatedForecast = updatedAmount * float64(period.PeriodCount)
	case newYearForecast != nil:
		updatedForecast = *newYearForecast
	case newAmount != nil:
		period, err := s.periodByID(plan.PeriodID)
		if err != nil {
			return nil, err
		}
		updatedForecast = updatedAmount * float64(period.PeriodCount)
	default:
		updatedForecast = plan.YearForecast
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&plan).Updates(map[string]interface{}{
			"planned_amount": updatedAmount,
			"period_id":      updatedPeriodID,
			"year_forecast":  updatedForecast,
		}).Error
		if err != nil {
			return err
		}

		if newAmount != nil && *newAmount != oldAmount {
			history := &models.PlanHistory{
				PlanID:    plan.ID,
				ChangedAt: time.Now(),
				OldAmount: oldAmount,
				NewAmount: *newAmount,
			}
			return tx.Create(history).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	plan.PlannedAmount = updatedAmount
	plan.PeriodID = updatedPeriodID
	plan.YearForecast = updatedForecast
	return &plan, nil
}

func (s *planService) periodByID(id string) (*models.Period, error) {
	var period models.Period
	if err := s.db.Where("id = ?", id).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &period, nil
}

// History returns the plan's amount-change audit trail, newest first.
func (s *planService) History(planID string) ([]models.PlanHistory, error) {
	if _, err := s.planByID(planID); err != nil {
		return nil, err
	}

	var history []models.PlanHistory
	err := s.db.Where("plan_subcategory_id = ?", planID).Order("changed_at DESC").Find(&history).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return history, nil
}

func (s *planService) planByID(id string) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &plan, nil
}

// planGap is one subcategory found without a plan during reconciliation.
type planGap struct {
	SubcategoryID string
	CategoryID    string
	CategoryType  models.FlowType
}

// ReconcileMissing backfills a default plan for every subcategory that has
// none. The default period is resolved once for the whole batch. Per-row
// failures (e.g. a plan created concurrently by a seeding pass) are counted
// out and skipped rather than aborting the batch; running it twice in a row
// yields zero counts the second time.
func (s *planService) ReconcileMissing() (*ReconcileResult, error) {
	var gaps []planGap
	err := s.db.Table("subcategories s").
		Select("s.id AS subcategory_id, s.category_id, c.type AS category_type").
		Joins("JOIN categories c ON s.category_id = c.id").
		Joins("LEFT JOIN plan_subcategories ps ON ps.subcategory_id = s.id").
		Where("ps.id IS NULL").
		Scan(&gaps).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	result := &ReconcileResult{}
	if len(gaps) == 0 {
		return result, nil
	}

	period, err := s.resolveDefaultPeriod()
	if err != nil {
		return nil, err
	}

	for _, gap := range gaps {
		plan := &models.Plan{
			CategoryID:    gap.CategoryID,
			SubcategoryID: gap.SubcategoryID,
			PeriodID:      period.ID,
			PlannedAmount: 0,
			YearForecast:  0,
		}
		if err := s.db.Create(plan).Error; err != nil {
			logger.Get().Warnw("skipping plan backfill",
				"subcategory_id", gap.SubcategoryID,
				"error", err.Error(),
			)
			continue
		}

		if gap.CategoryType == models.FlowIncome {
			result.IncomeCount++
		} else {
			result.ExpenseCount++
		}
	}
	return result, nil
}
