package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "kopilka/internal/errors"
	"kopilka/internal/models"
)

// periodService handles the fixed catalog of planning periods.
type periodService struct {
	db *gorm.DB
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB) PeriodServicer {
	return &periodService{db: db}
}

// Create adds a period to the catalog. Creation is idempotent by name: when a
// period with this name already exists its row is returned with created=false
// instead of an error.
func (s *periodService) Create(name string, periodCount int) (*models.Period, bool, error) {
	if name == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "period name is required")
	}
	if periodCount < 1 {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "period_count must be a positive integer")
	}

	existing, err := s.GetByName(name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrPeriodNotFound) {
		return nil, false, err
	}

	period := &models.Period{Name: name, PeriodCount: periodCount}
	if err := s.db.Create(period).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return period, true, nil
}

// List returns the catalog ordered by period_count ascending (day first,
// year last).
func (s *periodService) List() ([]models.Period, error) {
	var periods []models.Period
	if err := s.db.Order("period_count").Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return periods, nil
}

// GetByID retrieves a period by id.
func (s *periodService) GetByID(id string) (*models.Period, error) {
	var period models.Period
	if err := s.db.Where("id = ?", id).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &period, nil
}

// GetByName retrieves a period by its unique name.
func (s *periodService) GetByName(name string) (*models.Period, error) {
	var period models.Period
	if err := s.db.Where("name = ?", name).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &period, nil
}
