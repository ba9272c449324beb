package models

// Category is a top-level classification of money flow.
// Duplicate names within a type are allowed; only the id is authoritative.
type Category struct {
	Base
	Name string   `gorm:"not null" json:"name"`
	Type FlowType `gorm:"not null" json:"type"`

	// Relationships
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subcategories,omitempty"`
}
