// Package seed bootstraps an empty storage file with the standard planning
// periods and the default category/subcategory catalog, then backfills plans
// so every subcategory starts with one. Every step is idempotent, so running
// it on every startup is safe.
package seed

import (
	"gorm.io/gorm"

	"kopilka/internal/logger"
	"kopilka/internal/models"
	"kopilka/internal/services"
)

// standardPeriods is the fixed planning vocabulary: name and occurrences per
// year. Never auto-deleted once seeded.
var standardPeriods = []models.Period{
	{Name: "День", PeriodCount: 365},
	{Name: "Неделя", PeriodCount: 52},
	{Name: "Месяц", PeriodCount: 12},
	{Name: "Квартал", PeriodCount: 4},
	{Name: "Полугодие", PeriodCount: 2},
	{Name: "Год", PeriodCount: 1},
}

type catalogEntry struct {
	name          string
	flowType      models.FlowType
	subcategories []string
}

// defaultCatalog is the starter category taxonomy for a fresh ledger.
var defaultCatalog = []catalogEntry{
	{"Зарплата", models.FlowIncome, []string{"Зарплата", "Фриланс"}},
	{"Инвестиции_Д", models.FlowIncome, []string{"Дивиденды по акциям", "Процентный доход"}},
	{"Случайные доход", models.FlowIncome, []string{"Подарки", "Долг", "Продажа"}},
	{"Социальные выплаты", models.FlowIncome, []string{"Пенсия", "Стипендия"}},
	{"Прочие доходы", models.FlowIncome, []string{"Кэшбэк", "Возврат билетов", "Компенсация"}},
	{"Жильё", models.FlowExpense, []string{"Арендная плата", "Ипотека", "Ремонт и обслуживание"}},
	{"Коммунальные услуги", models.FlowExpense, []string{"Электричество", "Водоснабжение и водоотведение", "Газоснабжение", "Отопление", "Вывоз мусора"}},
	{"Связь и интернет", models.FlowExpense, []string{"Мобильная связь", "Домашний интернет", "ТВ"}},
	{"Транспорт", models.FlowExpense, []string{"Общественный транспорт", "Такси и каршеринг", "Бензин/зарядка для ЭВ", "Штрафы и парковка"}},
	{"Продукты питания", models.FlowExpense, []string{"Бакалея", "Мясо, птица, рыба", "Овощи и фрукты", "Напитки", "Сладости и снеки"}},
	{"Кредиты и долги", models.FlowExpense, []string{"Потребительские кредиты", "Кредитные карты", "Займы"}},
	{"Одежда и обувь", models.FlowExpense, []string{"Верхняя одежда", "Повседневная одежда", "Обувь"}},
	{"Здоровье", models.FlowExpense, []string{"Поликлиника, анализы, лечение", "Стоматология", "Лекарства и витамины"}},
	{"Образование", models.FlowExpense, []string{"Курсы, тренинги, репетиторы", "Книги и учебные материалы"}},
	{"Развлечения", models.FlowExpense, []string{"Кино", "Рестораны", "Доставка еды"}},
	{"Подписки и сервисы", models.FlowExpense, []string{"Видеостриминги", "Музыка", "Программное обеспечение"}},
	{"Путешествия и отдых", models.FlowExpense, []string{"Авиа / ЖД билеты", "Отели / Аренда жилья", "Экскурсии / Гиды"}},
	{"Сбережения", models.FlowExpense, []string{"Подушка безопасности", "Накопления на отпуск"}},
	{"Подарки", models.FlowExpense, []string{"Дни рождения", "Новый год", "Цветы"}},
	{"Прочие расходы", models.FlowExpense, []string{"Непредвиденные траты", "Комиссии банков"}},
}

// Run seeds periods and the default catalog where missing and backfills
// plans for any subcategory without one.
func Run(db *gorm.DB, periods services.PeriodServicer, plans services.PlanServicer) error {
	if err := seedPeriods(periods); err != nil {
		return err
	}
	if err := seedCatalog(db); err != nil {
		return err
	}

	result, err := plans.ReconcileMissing()
	if err != nil {
		return err
	}
	if result.IncomeCount > 0 || result.ExpenseCount > 0 {
		logger.Get().Infow("backfilled default plans",
			"income", result.IncomeCount,
			"expense", result.ExpenseCount,
		)
	}
	return nil
}

// seedPeriods relies on the catalog's idempotent create: existing names are
// returned, not duplicated.
func seedPeriods(periods services.PeriodServicer) error {
	for _, p := range standardPeriods {
		if _, _, err := periods.Create(p.Name, p.PeriodCount); err != nil {
			return err
		}
	}
	return nil
}

// seedCatalog inserts the default categories and subcategories, but only into
// a store with no categories at all. A user-managed taxonomy is never touched.
func seedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	logger.Get().Info("Seeding default categories and subcategories...")

	return db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range defaultCatalog {
			category := &models.Category{Name: entry.name, Type: entry.flowType}
			if err := tx.Create(category).Error; err != nil {
				return err
			}
			for _, name := range entry.subcategories {
				subcategory := &models.Subcategory{CategoryID: category.ID, Name: name}
				if err := tx.Create(subcategory).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
