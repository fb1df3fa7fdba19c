package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/financeiro/internal/domain"
)

// TotalBalance sums the balances of every account.
func TotalBalance(state domain.State) float64 {
	total := decimal.Zero
	for _, a := range state.Accounts {
		total = total.Add(decimal.NewFromFloat(a.Balance))
	}
	return total.InexactFloat64()
}

// TransactionsByDateRange returns transactions dated within [from, to].
func TransactionsByDateRange(state domain.State, from, to time.Time) []domain.Transaction {
	return filter(state.Transactions, func(t domain.Transaction) bool {
		return !t.Date.Before(from) && !t.Date.After(to)
	})
}

func TransactionsByCategory(state domain.State, categoryID string) []domain.Transaction {
	return filter(state.Transactions, func(t domain.Transaction) bool { return t.CategoryID == categoryID })
}

func TransactionsByAccount(state domain.State, accountID string) []domain.Transaction {
	return filter(state.Transactions, func(t domain.Transaction) bool { return t.AccountID == accountID })
}

func filter(txs []domain.Transaction, keep func(domain.Transaction) bool) []domain.Transaction {
	out := []domain.Transaction{}
	for _, t := range txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// MonthRange returns the first instant of the month containing t and the
// first instant of the following month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthTransactions returns the transactions dated in the month containing t.
func MonthTransactions(state domain.State, t time.Time) []domain.Transaction {
	start, end := MonthRange(t)
	return filter(state.Transactions, func(tx domain.Transaction) bool {
		return !tx.Date.Before(start) && tx.Date.Before(end)
	})
}

// Totals is an income/expense summary over a period.
type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
}

// Summarize totals income and expense amounts. Transfers are counted but
// not summed.
func Summarize(txs []domain.Transaction) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(decimal.NewFromFloat(t.Amount))
		case domain.TransactionTypeExpense:
			expenses = expenses.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	return Totals{
		Income:   income.InexactFloat64(),
		Expenses: expenses.InexactFloat64(),
		Net:      income.Sub(expenses).InexactFloat64(),
		Count:    len(txs),
	}
}

// MonthlySummary compares the month containing now with the one before.
type MonthlySummary struct {
	TotalBalance float64 `json:"totalBalance"`
	Current      Totals  `json:"current"`
	Previous     Totals  `json:"previous"`
}

func Monthly(state domain.State, now time.Time) MonthlySummary {
	start, _ := MonthRange(now)
	return MonthlySummary{
		TotalBalance: TotalBalance(state),
		Current:      Summarize(MonthTransactions(state, now)),
		Previous:     Summarize(MonthTransactions(state, start.AddDate(0, -1, 0))),
	}
}

// TopExpenses returns up to n expenses from txs, largest amount first.
func TopExpenses(txs []domain.Transaction, n int) []domain.Transaction {
	out := filter(txs, func(t domain.Transaction) bool { return t.Type == domain.TransactionTypeExpense })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Recent returns up to n transactions, newest date first.
func Recent(txs []domain.Transaction, n int) []domain.Transaction {
	out := append([]domain.Transaction{}, txs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
