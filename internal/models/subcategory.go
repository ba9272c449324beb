package models

// Subcategory is a named refinement of a Category and the unit at which
// budgets are planned. (category_id, name) is unique case-insensitively,
// enforced at creation time by the store.
type Subcategory struct {
	Base
	CategoryID string `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string `gorm:"not null" json:"name"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

// SubcategoryDetail is the read-side shape with the owning category's
// name and type denormalized by a join. Never persisted.
type SubcategoryDetail struct {
	ID           string   `json:"id"`
	CategoryID   string   `json:"category_id"`
	Name         string   `json:"name"`
	CategoryName string   `json:"category_name"`
	CategoryType FlowType `json:"category_type"`
}
