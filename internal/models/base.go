package models

import (
	"kopilka/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the opaque string identifier shared by all tables.
type Base struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
