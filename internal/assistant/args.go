package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/llm"
)

// ErrUnknownTool is returned when the model names a tool that does not exist.
var ErrUnknownTool = errors.New("assistant: unknown tool")

// ToolArgs is the decoded, validated argument record of one tool call.
// Exactly one concrete type exists per tool name.
type ToolArgs interface {
	toolName() string
}

// TransactionArgs are the arguments of add_transaction and the items of
// add_multiple_transactions.
type TransactionArgs struct {
	Description  string                 `json:"description"`
	Amount       float64                `json:"amount"`
	Type         domain.TransactionType `json:"type"`
	CategoryName string                 `json:"category_name"`
	AccountName  string                 `json:"account_name"`
	Date         string                 `json:"date"`
	Notes        string                 `json:"notes,omitempty"`
}

type MultipleTransactionsArgs struct {
	Transactions []json.RawMessage `json:"transactions"`
}

type CreateAccountArgs struct {
	Name     string             `json:"name"`
	Type     domain.AccountType `json:"type"`
	Balance  float64            `json:"balance"`
	Currency string             `json:"currency,omitempty"`
	Color    string             `json:"color,omitempty"`
}

type UpdateAccountBalanceArgs struct {
	AccountName string   `json:"account_name"`
	NewBalance  *float64 `json:"new_balance"`
}

func (TransactionArgs) toolName() string          { return ToolAddTransaction }
func (MultipleTransactionsArgs) toolName() string { return ToolAddMultiple }
func (CreateAccountArgs) toolName() string        { return ToolCreateAccount }
func (UpdateAccountBalanceArgs) toolName() string { return ToolUpdateAccountBalance }

// DecodeArgs parses and validates the arguments of call.
func DecodeArgs(call llm.ToolCall) (ToolArgs, error) {
	raw := call.Arguments
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	switch call.Name {
	case ToolAddTransaction:
		return DecodeTransactionArgs(raw)

	case ToolAddMultiple:
		var a MultipleTransactionsArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("DecodeArgs: %s: %w", call.Name, err)
		}
		if len(a.Transactions) == 0 {
			return nil, fmt.Errorf("DecodeArgs: %s: transactions is empty", call.Name)
		}
		return a, nil

	case ToolCreateAccount:
		var a CreateAccountArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("DecodeArgs: %s: %w", call.Name, err)
		}
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return nil, fmt.Errorf("DecodeArgs: %s: name is required", call.Name)
		}
		if !a.Type.Valid() {
			return nil, fmt.Errorf("DecodeArgs: %s: invalid account type %q", call.Name, a.Type)
		}
		if a.Currency == "" {
			a.Currency = domain.DefaultCurrency
		}
		return a, nil

	case ToolUpdateAccountBalance:
		var a UpdateAccountBalanceArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("DecodeArgs: %s: %w", call.Name, err)
		}
		if a.NewBalance == nil {
			return nil, fmt.Errorf("DecodeArgs: %s: new_balance is required", call.Name)
		}
		return a, nil
	}
	return nil, fmt.Errorf("DecodeArgs: %q: %w", call.Name, ErrUnknownTool)
}

// DecodeTransactionArgs parses and validates one transaction record.
func DecodeTransactionArgs(raw json.RawMessage) (TransactionArgs, error) {
	var a TransactionArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("DecodeTransactionArgs: %w", err)
	}
	if a.Amount <= 0 {
		return a, fmt.Errorf("DecodeTransactionArgs: amount must be positive, got %v", a.Amount)
	}
	if a.Type != domain.TransactionTypeIncome && a.Type != domain.TransactionTypeExpense {
		return a, fmt.Errorf("DecodeTransactionArgs: invalid type %q", a.Type)
	}
	if a.Date != "" {
		if _, err := time.Parse(dateLayout, a.Date); err != nil {
			return a, fmt.Errorf("DecodeTransactionArgs: invalid date %q", a.Date)
		}
	}
	return a, nil
}

const dateLayout = "2006-01-02"

// transactionDate interprets a YYYY-MM-DD date at noon in loc. An empty date
// means today.
func transactionDate(date string, now time.Time) time.Time {
	loc := now.Location()
	if date == "" {
		date = now.Format(dateLayout)
	}
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		d = now
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 12, 0, 0, 0, loc)
}
