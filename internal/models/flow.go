package models

// FlowType partitions money movement into income and expense. It is threaded
// through categories, operations and plan read views so that an invalid value
// is rejected once, at the boundary, instead of being carried as free text.
type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

// Valid reports whether the value is one of the two known variants.
func (t FlowType) Valid() bool {
	return t == FlowIncome || t == FlowExpense
}
