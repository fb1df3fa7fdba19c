package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/resolver"
)

// DefaultAccountColor is used by create_account when no color is given.
const DefaultAccountColor = "hsl(var(--accent-primary))"

// TransactionResult is the result payload of add_transaction.
type TransactionResult struct {
	Success     bool                   `json:"success"`
	Description string                 `json:"description,omitempty"`
	Amount      float64                `json:"amount,omitempty"`
	Type        domain.TransactionType `json:"type,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Account     string                 `json:"account,omitempty"`
	Date        string                 `json:"date,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

type MultipleResult struct {
	Success      bool                `json:"success"`
	Count        int                 `json:"count"`
	Transactions []TransactionResult `json:"transactions"`
}

type AccountSummary struct {
	Name     string             `json:"name"`
	Type     domain.AccountType `json:"type"`
	Balance  float64            `json:"balance"`
	Currency string             `json:"currency"`
}

type CreateAccountResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Account AccountSummary `json:"account"`
}

type UpdateBalanceResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Account    string   `json:"account,omitempty"`
	NewBalance *float64 `json:"newBalance,omitempty"`
}

// FailureResult is returned for a call that could not be applied.
type FailureResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Executor applies decoded tool calls to a State through the ledger.
// Every call is self-contained: its effect only depends on the state it
// is given.
type Executor struct {
	ledger *ledger.Ledger
}

func NewExecutor(l *ledger.Ledger) *Executor {
	return &Executor{ledger: l}
}

// Execute runs one tool call and returns the next state and the JSON result
// to send back to the model. Malformed or unknown calls leave state
// untouched and produce a {success:false} result.
func (e *Executor) Execute(state domain.State, call llm.ToolCall) (domain.State, string) {
	args, err := DecodeArgs(call)
	if err != nil {
		return state, encode(FailureResult{Success: false, Message: fmt.Sprintf("Argumentos inválidos para %s: %v", call.Name, err)})
	}

	switch a := args.(type) {
	case TransactionArgs:
		next, res := e.addTransaction(state, a)
		return next, encode(res)

	case MultipleTransactionsArgs:
		res := MultipleResult{Transactions: []TransactionResult{}}
		for i, raw := range a.Transactions {
			item, err := DecodeTransactionArgs(raw)
			if err != nil {
				res.Transactions = append(res.Transactions, TransactionResult{
					Success: false,
					Message: fmt.Sprintf("Transação %d inválida: %v", i+1, err),
				})
				continue
			}
			var r TransactionResult
			state, r = e.addTransaction(state, item)
			res.Transactions = append(res.Transactions, r)
			if r.Success {
				res.Count++
			}
		}
		res.Success = res.Count > 0
		return state, encode(res)

	case CreateAccountArgs:
		next, res := e.createAccount(state, a)
		return next, encode(res)

	case UpdateAccountBalanceArgs:
		next, res := e.updateBalance(state, a)
		return next, encode(res)
	}
	return state, encode(FailureResult{Success: false, Message: "Ferramenta desconhecida: " + call.Name})
}

func (e *Executor) addTransaction(state domain.State, a TransactionArgs) (domain.State, TransactionResult) {
	cat, catMatch := resolver.Category(state.Categories, a.CategoryName, domain.CategoryTypeFor(a.Type))
	acc, accMatch := resolver.Account(state.Accounts, a.AccountName)

	date := transactionDate(a.Date, e.ledger.Now())
	next := e.ledger.CreateTransaction(state, domain.TransactionDraft{
		AccountID:   acc.ID,
		Type:        a.Type,
		Amount:      a.Amount,
		Currency:    domain.DefaultCurrency,
		Description: a.Description,
		CategoryID:  cat.ID,
		Date:        date,
		Notes:       a.Notes,
	})

	res := TransactionResult{
		Success:     true,
		Description: a.Description,
		Amount:      a.Amount,
		Type:        a.Type,
		Category:    a.CategoryName,
		Account:     a.AccountName,
		Date:        date.Format(dateLayout),
	}
	if catMatch != resolver.NoMatch {
		res.Category = cat.Name
	}
	if accMatch != resolver.NoMatch {
		res.Account = acc.Name
	}
	return next, res
}

func (e *Executor) createAccount(state domain.State, a CreateAccountArgs) (domain.State, CreateAccountResult) {
	color := a.Color
	if color == "" {
		color = DefaultAccountColor
	}
	next, _ := e.ledger.CreateAccount(state, domain.Account{
		Name:     a.Name,
		Type:     a.Type,
		Balance:  a.Balance,
		Currency: a.Currency,
		Color:    color,
		Icon:     a.Type.Icon(),
	})
	return next, CreateAccountResult{
		Success: true,
		Message: fmt.Sprintf("Conta %q criada com sucesso!", a.Name),
		Account: AccountSummary{Name: a.Name, Type: a.Type, Balance: a.Balance, Currency: a.Currency},
	}
}

func (e *Executor) updateBalance(state domain.State, a UpdateAccountBalanceArgs) (domain.State, UpdateBalanceResult) {
	acc, kind := resolver.Account(state.Accounts, a.AccountName)
	if kind == resolver.NoMatch {
		return state, UpdateBalanceResult{
			Success: false,
			Message: fmt.Sprintf("Conta %q não encontrada.", a.AccountName),
		}
	}
	next := e.ledger.UpdateAccount(state, acc.ID, domain.AccountUpdate{Balance: a.NewBalance})
	return next, UpdateBalanceResult{
		Success:    true,
		Message:    fmt.Sprintf("Saldo da conta %q atualizado para %v.", acc.Name, *a.NewBalance),
		Account:    acc.Name,
		NewBalance: a.NewBalance,
	}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"success":false,"message":"erro interno ao serializar resultado"}`
	}
	return string(b)
}

