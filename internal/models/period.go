package models

// Period is a planning recurrence unit. PeriodCount is the number of
// occurrences per year (365 for a day, 12 for a month, 1 for a year) and is
// always at least 1; the catalog is seeded once and never auto-deleted.
type Period struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	PeriodCount int    `gorm:"not null" json:"period_count"`
}
