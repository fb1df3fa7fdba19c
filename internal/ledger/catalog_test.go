package ledger

import (
	"testing"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
)

func TestDeleteCategory(t *testing.T) {
	l := newTestLedger()
	state, userID := l.CreateCategory(domain.InitialState(), domain.Category{Name: "Café", Type: domain.CategoryTypeExpense, IsDefault: true})

	tests := []struct {
		name      string
		id        string
		wantCount int
	}{
		{name: "default category is protected", id: "cat_food", wantCount: len(state.Categories)},
		{name: "user category is removed", id: userID, wantCount: len(state.Categories) - 1},
		{name: "unknown id is a no-op", id: "missing", wantCount: len(state.Categories)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := l.DeleteCategory(state, tt.id)
			if len(next.Categories) != tt.wantCount {
				t.Errorf("got %d categories, want %d", len(next.Categories), tt.wantCount)
			}
		})
	}
}

func TestCreateCategory_NeverDefault(t *testing.T) {
	l := newTestLedger()
	state, id := l.CreateCategory(domain.InitialState(), domain.Category{Name: "Café", IsDefault: true})
	c, ok := state.FindCategory(id)
	if !ok || c.IsDefault {
		t.Errorf("created category = %+v, want non-default", c)
	}
}

func TestDeleteCategory_KeepsTransactions(t *testing.T) {
	l := newTestLedger()
	s, catID := l.CreateCategory(twoAccountState(), domain.Category{Name: "Café", Type: domain.CategoryTypeExpense})
	draft := expense("A", 5)
	draft.CategoryID = catID
	s = l.CreateTransaction(s, draft)

	s = l.DeleteCategory(s, catID)
	if len(s.Transactions) != 1 || s.Transactions[0].CategoryID != catID {
		t.Errorf("transaction lost its category id: %+v", s.Transactions)
	}
}

func TestDeleteAccount_DoesNotCascade(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 5))
	s = l.DeleteAccount(s, "A")

	if _, ok := s.FindAccount("A"); ok {
		t.Errorf("account not deleted")
	}
	if len(s.Transactions) != 1 {
		t.Errorf("transactions cascaded on account delete")
	}
	// Deleting an orphaned transaction must not fail.
	s = l.DeleteTransaction(s, s.Transactions[0].ID)
	if len(s.Transactions) != 0 {
		t.Errorf("orphan not deleted")
	}
}

func TestCreateAccount_DefaultsIconAndCurrency(t *testing.T) {
	l := newTestLedger()
	s, id := l.CreateAccount(domain.InitialState(), domain.Account{Name: "Carteira", Type: domain.AccountTypeCash})
	a, _ := s.FindAccount(id)
	if a.Icon != "Wallet" || a.Currency != "BRL" {
		t.Errorf("account = %+v", a)
	}
}

func TestUpdateAccount_BalanceOverride(t *testing.T) {
	l := newTestLedger()
	bal := 1234.5
	s := l.UpdateAccount(twoAccountState(), "A", domain.AccountUpdate{Balance: &bal})
	if got := balanceOf(t, s, "A"); got != bal {
		t.Errorf("balance = %v, want %v", got, bal)
	}
}

func TestCreateRecurringTransaction(t *testing.T) {
	l := newTestLedger()
	draft := expense("A", 99.9)
	draft.Date = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	s := l.CreateRecurringTransaction(twoAccountState(), draft, domain.FrequencyMonthly)

	if len(s.RecurringRules) != 1 {
		t.Fatalf("got %d rules, want 1", len(s.RecurringRules))
	}
	r := s.RecurringRules[0]
	wantNext := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	if !r.NextDate.Equal(wantNext) || !r.Active || r.LastGenerated != nil {
		t.Errorf("rule = %+v", r)
	}
	tx := s.Transactions[0]
	if !tx.IsRecurring || tx.RecurringRuleID != r.ID {
		t.Errorf("transaction not linked to rule: %+v", tx)
	}
}

func TestChatAndSettings(t *testing.T) {
	l := newTestLedger()
	s := l.AddChatMessage(domain.InitialState(), domain.RoleUser, "oi", "")
	s = l.AddChatMessage(s, domain.RoleAssistant, "olá", "")
	if len(s.ChatHistory) != 2 || s.ChatHistory[1].Role != domain.RoleAssistant {
		t.Fatalf("chat history = %+v", s.ChatHistory)
	}
	s = l.ClearChat(s)
	if len(s.ChatHistory) != 0 {
		t.Errorf("chat not cleared")
	}

	theme := "dark"
	s = l.UpdateSettings(s, domain.SettingsUpdate{Theme: &theme})
	if s.Settings.Theme != "dark" || s.Settings.DefaultCurrency != "BRL" {
		t.Errorf("settings = %+v", s.Settings)
	}
}

func TestMonthly(t *testing.T) {
	l := newTestLedger()
	s := twoAccountState()
	for _, d := range []struct {
		typ    domain.TransactionType
		amount float64
		date   time.Time
	}{
		{domain.TransactionTypeIncome, 1000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{domain.TransactionTypeExpense, 200, time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)},
		{domain.TransactionTypeExpense, 50, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{domain.TransactionTypeExpense, 70, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	} {
		draft := expense("A", d.amount)
		draft.Type = d.typ
		draft.Date = d.date
		s = l.CreateTransaction(s, draft)
	}

	got := Monthly(s, fixedNow)
	if got.Current.Income != 1000 || got.Current.Expenses != 200 || got.Current.Net != 800 {
		t.Errorf("current = %+v", got.Current)
	}
	if got.Previous.Expenses != 50 || got.Previous.Count != 1 {
		t.Errorf("previous = %+v", got.Previous)
	}
	if !almostEqual(got.TotalBalance, 100+1000-200-50-70+50) {
		t.Errorf("total balance = %v", got.TotalBalance)
	}

	top := TopExpenses(MonthTransactions(s, fixedNow), 5)
	if len(top) != 1 || top[0].Amount != 200 {
		t.Errorf("top expenses = %+v", top)
	}
}
