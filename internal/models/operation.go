package models

// Operation is a single recorded money movement. Date is a fixed-width ISO
// 8601 day (YYYY-MM-DD) stored as text, so lexicographic range filters are
// correct. SubcategoryID is nullable and survives subcategory deletion as NULL.
type Operation struct {
	Base
	Type          FlowType `gorm:"not null;index" json:"type"`
	CategoryID    string   `gorm:"type:uuid;not null" json:"category_id"`
	SubcategoryID *string  `gorm:"type:uuid" json:"subcategory_id,omitempty"`
	Amount        float64  `gorm:"not null" json:"amount"`
	Date          string   `gorm:"not null;index" json:"date"`
	Description   string   `json:"description,omitempty"`
}

// OperationDetail is the read-side shape with category and subcategory names
// joined in (inner and left join respectively).
type OperationDetail struct {
	ID              string   `json:"id"`
	Type            FlowType `json:"type"`
	CategoryID      string   `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	SubcategoryID   *string  `json:"subcategory_id,omitempty"`
	SubcategoryName *string  `json:"subcategory_name,omitempty"`
	Amount          float64  `json:"amount"`
	Date            string   `json:"date"`
	Description     string   `json:"description,omitempty"`
}
