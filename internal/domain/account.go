package domain

// AccountType is the kind of account.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeCash, AccountTypeCredit, AccountTypeInvestment:
		return true
	}
	return false
}

// Icon returns the icon used for accounts of this type when none is given.
func (t AccountType) Icon() string {
	switch t {
	case AccountTypeCash:
		return "Wallet"
	case AccountTypeCredit:
		return "CreditCard"
	default:
		return "Building2"
	}
}

// Account holds a persisted running balance. The balance is maintained
// incrementally by the ledger on every transaction change.
type Account struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	Balance  float64     `json:"balance"`
	Currency string      `json:"currency"`
	Color    string      `json:"color"`
	Icon     string      `json:"icon"`
}

// AccountUpdate is a partial account update.
type AccountUpdate struct {
	Name     *string      `json:"name,omitempty"`
	Type     *AccountType `json:"type,omitempty"`
	Balance  *float64     `json:"balance,omitempty"`
	Currency *string      `json:"currency,omitempty"`
	Color    *string      `json:"color,omitempty"`
	Icon     *string      `json:"icon,omitempty"`
}
