package services

import (
	"testing"

	"kopilka/internal/models"
	"kopilka/internal/pagination"
	"kopilka/internal/testutil"
)

func TestCreateDefaultPlan(t *testing.T) {
	t.Run("uses_preferred_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		testutil.CreateTestPeriod(t, db, "Год", 1)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)

		plan, err := svc.CreateDefault(subcategory.ID)
		testutil.AssertNoError(t, err)

		if plan.PeriodID != month.ID {
			t.Errorf("expected preferred period %s, got %s", month.ID, plan.PeriodID)
		}
		if plan.PlannedAmount != 0 || plan.YearForecast != 0 {
			t.Errorf("expected zero amount and forecast, got %v / %v", plan.PlannedAmount, plan.YearForecast)
		}
	})

	t.Run("falls_back_to_shortest_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		year := testutil.CreateTestPeriod(t, db, "Год", 1)
		testutil.CreateTestPeriod(t, db, "Квартал", 4)

		plan, err := svc.CreateDefault(subcategory.ID)
		testutil.AssertNoError(t, err)

		if plan.PeriodID != year.ID {
			t.Errorf("expected fallback period %s, got %s", year.ID, plan.PeriodID)
		}
	})

	t.Run("empty_catalog", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)

		_, err := svc.CreateDefault(subcategory.ID)
		testutil.AssertAppError(t, err, "NO_PERIOD_AVAILABLE")
	})

	t.Run("idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		testutil.CreateTestPeriod(t, db, "Месяц", 12)

		first, err := svc.CreateDefault(subcategory.ID)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateDefault(subcategory.ID)
		testutil.AssertNoError(t, err)

		if second.ID != first.ID {
			t.Errorf("expected the existing plan, got %s vs %s", second.ID, first.ID)
		}
	})

	t.Run("subcategory_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		_, err := svc.CreateDefault("nonexistent")
		testutil.AssertAppError(t, err, "SUBCATEGORY_NOT_FOUND")
	})
}

func TestCreatePlan(t *testing.T) {
	t.Run("forecast_follows_period_count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		quarter := testutil.CreateTestPeriod(t, db, "Квартал", 4)

		plan, created, err := svc.Create(category.ID, subcategory.ID, quarter.ID, 250)
		testutil.AssertNoError(t, err)

		if !created {
			t.Fatal("expected created=true")
		}
		if plan.YearForecast != 1000 {
			t.Errorf("expected year forecast 1000, got %v", plan.YearForecast)
		}
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		_, _, err := svc.Create("c", "s", "p", -1)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("existing_plan_returned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		existing := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 100, month.PeriodCount)

		plan, created, err := svc.Create(category.ID, subcategory.ID, month.ID, 999)
		testutil.AssertNoError(t, err)

		if created {
			t.Fatal("expected created=false for an existing plan")
		}
		if plan.ID != existing.ID || plan.PlannedAmount != 100 {
			t.Errorf("expected the existing plan untouched, got %+v", plan)
		}
	})

	t.Run("period_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)

		_, _, err := svc.Create(category.ID, subcategory.ID, "nonexistent", 100)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
	})
}

func TestGetPlanBySubcategory(t *testing.T) {
	t.Run("detail_with_monthly_equivalent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		quarter := testutil.CreateTestPeriod(t, db, "Квартал", 4)
		testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, quarter.ID, 300, quarter.PeriodCount)

		detail, err := svc.GetBySubcategory(subcategory.ID)
		testutil.AssertNoError(t, err)

		if detail.PeriodName != "Квартал" || detail.PeriodCount != 4 {
			t.Errorf("expected period Квартал/4, got %s/%d", detail.PeriodName, detail.PeriodCount)
		}
		if detail.CategoryName != category.Name || detail.SubcategoryName != subcategory.Name {
			t.Errorf("expected denormalized names, got %s / %s", detail.CategoryName, detail.SubcategoryName)
		}
		if detail.MonthlyEquivalent != 900 {
			t.Errorf("expected monthly equivalent 900, got %v", detail.MonthlyEquivalent)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		_, err := svc.GetBySubcategory("nonexistent")
		testutil.AssertAppError(t, err, "PLAN_NOT_FOUND")
	})
}

func TestListPlans(t *testing.T) {
	t.Run("income_before_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)

		expense := testutil.CreateTestCategory(t, db, models.FlowExpense)
		expenseSub := testutil.CreateTestSubcategory(t, db, expense.ID)
		testutil.CreateTestPlan(t, db, expense.ID, expenseSub.ID, month.ID, 100, month.PeriodCount)

		income := testutil.CreateTestCategory(t, db, models.FlowIncome)
		incomeSub := testutil.CreateTestSubcategory(t, db, income.ID)
		testutil.CreateTestPlan(t, db, income.ID, incomeSub.ID, month.ID, 200, month.PeriodCount)

		result, err := svc.List(nil, nil, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 plans, got %d", result.TotalItems)
		}
		if result.Data[0].CategoryType != models.FlowIncome {
			t.Errorf("expected income plans first, got %s", result.Data[0].CategoryType)
		}
		if result.Data[1].CategoryType != models.FlowExpense {
			t.Errorf("expected expense plans last, got %s", result.Data[1].CategoryType)
		}
	})

	t.Run("filtered_by_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)

		first := testutil.CreateTestCategory(t, db, models.FlowExpense)
		firstSub := testutil.CreateTestSubcategory(t, db, first.ID)
		testutil.CreateTestPlan(t, db, first.ID, firstSub.ID, month.ID, 100, month.PeriodCount)

		second := testutil.CreateTestCategory(t, db, models.FlowExpense)
		secondSub := testutil.CreateTestSubcategory(t, db, second.ID)
		testutil.CreateTestPlan(t, db, second.ID, secondSub.ID, month.ID, 200, month.PeriodCount)

		result, err := svc.List(&first.ID, nil, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 plan, got %d", result.TotalItems)
		}
		if result.Data[0].CategoryID != first.ID {
			t.Errorf("expected category %s, got %s", first.ID, result.Data[0].CategoryID)
		}
	})
}

func TestUpdatePlan(t *testing.T) {
	t.Run("amount_change_recomputes_forecast_and_appends_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		plan := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 0, month.PeriodCount)

		amount := 1000.0
		updated, err := svc.Update(plan.ID, &amount, nil, nil)
		testutil.AssertNoError(t, err)

		if updated.PlannedAmount != 1000 {
			t.Errorf("expected amount 1000, got %v", updated.PlannedAmount)
		}
		if updated.YearForecast != 12000 {
			t.Errorf("expected forecast 12000, got %v", updated.YearForecast)
		}

		history, err := svc.History(plan.ID)
		testutil.AssertNoError(t, err)
		if len(history) != 1 {
			t.Fatalf("expected 1 history row, got %d", len(history))
		}
		if history[0].OldAmount != 0 || history[0].NewAmount != 1000 {
			t.Errorf("expected history 0 -> 1000, got %v -> %v", history[0].OldAmount, history[0].NewAmount)
		}
	})

	t.Run("period_change_recomputes_forecast_without_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		year := testutil.CreateTestPeriod(t, db, "Год", 1)
		plan := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 1000, month.PeriodCount)

		updated, err := svc.Update(plan.ID, nil, &year.ID, nil)
		testutil.AssertNoError(t, err)

		if updated.PeriodID != year.ID {
			t.Errorf("expected period %s, got %s", year.ID, updated.PeriodID)
		}
		if updated.YearForecast != 1000 {
			t.Errorf("expected forecast 1000, got %v", updated.YearForecast)
		}

		history, err := svc.History(plan.ID)
		testutil.AssertNoError(t, err)
		if len(history) != 0 {
			t.Errorf("expected no history rows for a period-only change, got %d", len(history))
		}
	})

	t.Run("explicit_forecast_wins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		plan := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 100, month.PeriodCount)

		amount := 200.0
		forecast := 5000.0
		updated, err := svc.Update(plan.ID, &amount, nil, &forecast)
		testutil.AssertNoError(t, err)

		if updated.YearForecast != 5000 {
			t.Errorf("expected forecast 5000 verbatim, got %v", updated.YearForecast)
		}
	})

	t.Run("same_amount_writes_no_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		plan := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 100, month.PeriodCount)

		amount := 100.0
		_, err := svc.Update(plan.ID, &amount, nil, nil)
		testutil.AssertNoError(t, err)

		history, err := svc.History(plan.ID)
		testutil.AssertNoError(t, err)
		if len(history) != 0 {
			t.Errorf("expected no history rows for an unchanged amount, got %d", len(history))
		}
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		amount := -5.0
		_, err := svc.Update("irrelevant", &amount, nil, nil)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("plan_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		amount := 5.0
		_, err := svc.Update("nonexistent", &amount, nil, nil)
		testutil.AssertAppError(t, err, "PLAN_NOT_FOUND")
	})
}

func TestPlanHistory(t *testing.T) {
	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		subcategory := testutil.CreateTestSubcategory(t, db, category.ID)
		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)
		plan := testutil.CreateTestPlan(t, db, category.ID, subcategory.ID, month.ID, 0, month.PeriodCount)

		for _, amount := range []float64{100, 200} {
			a := amount
			_, err := svc.Update(plan.ID, &a, nil, nil)
			testutil.AssertNoError(t, err)
		}

		history, err := svc.History(plan.ID)
		testutil.AssertNoError(t, err)

		if len(history) != 2 {
			t.Fatalf("expected 2 history rows, got %d", len(history))
		}
		if history[0].ChangedAt.Before(history[1].ChangedAt) {
			t.Errorf("expected the newest change first, got %v before %v", history[0].ChangedAt, history[1].ChangedAt)
		}
	})

	t.Run("plan_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		_, err := svc.History("nonexistent")
		testutil.AssertAppError(t, err, "PLAN_NOT_FOUND")
	})
}

func TestReconcileMissing(t *testing.T) {
	t.Run("backfills_and_counts_by_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		month := testutil.CreateTestPeriod(t, db, "Месяц", 12)

		income := testutil.CreateTestCategory(t, db, models.FlowIncome)
		incomeSub := testutil.CreateTestSubcategory(t, db, income.ID)

		expense := testutil.CreateTestCategory(t, db, models.FlowExpense)
		testutil.CreateTestSubcategory(t, db, expense.ID)
		covered := testutil.CreateTestSubcategory(t, db, expense.ID)
		testutil.CreateTestPlan(t, db, expense.ID, covered.ID, month.ID, 50, month.PeriodCount)

		result, err := svc.ReconcileMissing()
		testutil.AssertNoError(t, err)

		if result.IncomeCount != 1 || result.ExpenseCount != 1 {
			t.Errorf("expected counts 1/1, got %d/%d", result.IncomeCount, result.ExpenseCount)
		}

		plan, err := svc.GetBySubcategory(incomeSub.ID)
		testutil.AssertNoError(t, err)
		if plan.PlannedAmount != 0 || plan.PeriodID != month.ID {
			t.Errorf("expected a zero plan on the default period, got %+v", plan)
		}
	})

	t.Run("second_run_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		testutil.CreateTestPeriod(t, db, "Месяц", 12)
		category := testutil.CreateTestCategory(t, db, models.FlowExpense)
		testutil.CreateTestSubcategory(t, db, category.ID)

		_, err := svc.ReconcileMissing()
		testutil.AssertNoError(t, err)

		result, err := svc.ReconcileMissing()
		testutil.AssertNoError(t, err)
		if result.IncomeCount != 0 || result.ExpenseCount != 0 {
			t.Errorf("expected a no-op second run, got %d/%d", result.IncomeCount, result.ExpenseCount)
		}
	})

	t.Run("no_gaps_no_period_needed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPlanService(db, DefaultPeriodPolicy{PreferredName: "Месяц"})

		result, err := svc.ReconcileMissing()
		testutil.AssertNoError(t, err)
		if result.IncomeCount != 0 || result.ExpenseCount != 0 {
			t.Errorf("expected zero counts on an empty store, got %d/%d", result.IncomeCount, result.ExpenseCount)
		}
	})
}
