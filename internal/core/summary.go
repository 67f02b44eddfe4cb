package core

// CategoryAmount represents an amount aggregated by expense category.
type CategoryAmount struct {
	Category ExpenseCategory `json:"category"`
	Amount   Money           `json:"amount"`
}
