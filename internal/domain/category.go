package domain

// CategoryType restricts a category to income or expense transactions.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category groups transactions. Default categories are seeded on first load
// and cannot be deleted.
type Category struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Type      CategoryType `json:"type"`
	IsDefault bool         `json:"isDefault"`
}

type CategoryUpdate struct {
	Name  *string       `json:"name,omitempty"`
	Icon  *string       `json:"icon,omitempty"`
	Color *string       `json:"color,omitempty"`
	Type  *CategoryType `json:"type,omitempty"`
}

// CategoryTypeFor maps a transaction type onto the category type used to
// look up its category. Transfers use expense categories.
func CategoryTypeFor(t TransactionType) CategoryType {
	if t == TransactionTypeIncome {
		return CategoryTypeIncome
	}
	return CategoryTypeExpense
}
