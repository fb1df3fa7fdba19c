package domain

import (
	"time"
)

// TransactionType classifies a transaction for balance math.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is one ledger entry. Amount is always stored positive;
// the sign is derived from Type when balances are computed.
type Transaction struct {
	ID                   string          `json:"id"`
	AccountID            string          `json:"accountId"`
	Type                 TransactionType `json:"type"`
	Amount               float64         `json:"amount"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description"`
	CategoryID           string          `json:"categoryId"`
	Date                 time.Time       `json:"date"`
	Notes                string          `json:"notes,omitempty"`
	AICategorySuggestion string          `json:"aiCategorySuggestion,omitempty"`
	IsRecurring          bool            `json:"isRecurring"`
	RecurringRuleID      string          `json:"recurringRuleId,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// TransactionDraft is the caller-supplied part of a new transaction.
// Id and timestamps are assigned by the ledger.
type TransactionDraft struct {
	AccountID       string          `json:"accountId"`
	Type            TransactionType `json:"type"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"categoryId"`
	Date            time.Time       `json:"date"`
	Notes           string          `json:"notes,omitempty"`
	IsRecurring     bool            `json:"isRecurring"`
	RecurringRuleID string          `json:"recurringRuleId,omitempty"`
}

// TransactionUpdate carries a partial update. Nil fields are left unchanged.
type TransactionUpdate struct {
	AccountID   *string          `json:"accountId,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// AffectsBalance reports whether the update touches amount, type or account.
func (u TransactionUpdate) AffectsBalance() bool {
	return u.Amount != nil || u.Type != nil || u.AccountID != nil
}
