package ledger

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	n := 0
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func twoAccountState() domain.State {
	s := domain.InitialState()
	s.Accounts = []domain.Account{
		{ID: "A", Name: "Account A", Type: domain.AccountTypeBank, Balance: 100, Currency: "BRL"},
		{ID: "B", Name: "Account B", Type: domain.AccountTypeCash, Balance: 50, Currency: "BRL"},
	}
	return s
}

func balanceOf(t *testing.T, s domain.State, id string) float64 {
	t.Helper()
	a, ok := s.FindAccount(id)
	if !ok {
		t.Fatalf("account %s not found", id)
	}
	return a.Balance
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func expense(account string, amount float64) domain.TransactionDraft {
	return domain.TransactionDraft{
		AccountID:   account,
		Type:        domain.TransactionTypeExpense,
		Amount:      amount,
		Description: "test",
		CategoryID:  "cat_food",
		Date:        fixedNow,
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name     string
		txType   domain.TransactionType
		amount   float64
		wantBalA float64
	}{
		{name: "expense debits", txType: domain.TransactionTypeExpense, amount: 30, wantBalA: 70},
		{name: "income credits", txType: domain.TransactionTypeIncome, amount: 30, wantBalA: 130},
		{name: "transfer has no balance effect", txType: domain.TransactionTypeTransfer, amount: 30, wantBalA: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger()
			state := twoAccountState()
			draft := expense("A", tt.amount)
			draft.Type = tt.txType

			next := l.CreateTransaction(state, draft)

			if got := balanceOf(t, next, "A"); !almostEqual(got, tt.wantBalA) {
				t.Errorf("balance A = %v, want %v", got, tt.wantBalA)
			}
			if got := balanceOf(t, state, "A"); got != 100 {
				t.Errorf("input state modified: balance A = %v", got)
			}
			if len(next.Transactions) != 1 {
				t.Fatalf("got %d transactions, want 1", len(next.Transactions))
			}
			tx := next.Transactions[0]
			if tx.ID != "id-1" || !tx.CreatedAt.Equal(fixedNow) || !tx.UpdatedAt.Equal(fixedNow) {
				t.Errorf("unexpected stamping: %+v", tx)
			}
			if tx.Currency != "BRL" {
				t.Errorf("currency = %q, want default BRL", tx.Currency)
			}
		})
	}
}

func TestCreateTransaction_PrependsNewest(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 1))
	s = l.CreateTransaction(s, expense("A", 2))

	if s.Transactions[0].Amount != 2 {
		t.Errorf("newest transaction not first: %+v", s.Transactions)
	}
}

func TestCreateTransaction_UnknownAccountIsTolerated(t *testing.T) {
	l := newTestLedger()
	state := twoAccountState()
	next := l.CreateTransaction(state, expense("missing", 10))

	if len(next.Transactions) != 1 {
		t.Fatalf("transaction not stored")
	}
	if balanceOf(t, next, "A") != 100 || balanceOf(t, next, "B") != 50 {
		t.Errorf("balances changed for unknown account")
	}
}

func TestRoundTrip_CreateThenDelete(t *testing.T) {
	l := newTestLedger()
	state := twoAccountState()
	state.Accounts[0].Balance = 0.1

	created := l.CreateTransaction(state, domain.TransactionDraft{
		AccountID: "A", Type: domain.TransactionTypeIncome, Amount: 0.2, Date: fixedNow,
	})
	if got := balanceOf(t, created, "A"); got != 0.3 {
		t.Errorf("balance after create = %v, want exactly 0.3", got)
	}

	deleted := l.DeleteTransaction(created, created.Transactions[0].ID)
	if got := balanceOf(t, deleted, "A"); got != 0.1 {
		t.Errorf("balance after delete = %v, want 0.1", got)
	}
	if len(deleted.Transactions) != 0 {
		t.Errorf("transaction not removed")
	}
}

func TestUpdateTransaction_NotesOnlyKeepsBalances(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 30))
	id := s.Transactions[0].ID

	notes := "paid in cash"
	next := l.UpdateTransaction(s, id, domain.TransactionUpdate{Notes: &notes})

	if balanceOf(t, next, "A") != 70 || balanceOf(t, next, "B") != 50 {
		t.Errorf("balances changed on notes update: %+v", next.Accounts)
	}
	if next.Transactions[0].Notes != notes {
		t.Errorf("notes not applied")
	}
}

func TestUpdateTransaction_AccountChangeRevertsThenApplies(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 30))
	if got := balanceOf(t, s, "A"); got != 70 {
		t.Fatalf("balance A after create = %v, want 70", got)
	}

	b := "B"
	next := l.UpdateTransaction(s, s.Transactions[0].ID, domain.TransactionUpdate{AccountID: &b})

	if got := balanceOf(t, next, "A"); got != 100 {
		t.Errorf("balance A = %v, want 100", got)
	}
	if got := balanceOf(t, next, "B"); got != 20 {
		t.Errorf("balance B = %v, want 20", got)
	}
}

func TestUpdateTransaction_SameAccountAmountAndType(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 30))
	id := s.Transactions[0].ID

	amount := 45.5
	income := domain.TransactionTypeIncome
	a := "A"
	next := l.UpdateTransaction(s, id, domain.TransactionUpdate{Amount: &amount, Type: &income, AccountID: &a})

	if got := balanceOf(t, next, "A"); !almostEqual(got, 145.5) {
		t.Errorf("balance A = %v, want 145.5", got)
	}
}

func TestUpdateTransaction_UnknownIDIsNoop(t *testing.T) {
	l := newTestLedger()
	s := twoAccountState()
	amount := 1.0
	next := l.UpdateTransaction(s, "nope", domain.TransactionUpdate{Amount: &amount})
	if len(next.Transactions) != 0 || balanceOf(t, next, "A") != 100 {
		t.Errorf("expected identity no-op")
	}
}

func TestDeleteTransaction_UnknownIDIsNoop(t *testing.T) {
	l := newTestLedger()
	s := l.CreateTransaction(twoAccountState(), expense("A", 10))
	next := l.DeleteTransaction(s, "nope")
	if len(next.Transactions) != 1 || balanceOf(t, next, "A") != 90 {
		t.Errorf("expected identity no-op")
	}
}

// The balance invariant: every account equals its seed balance plus the
// signed amounts of the transactions currently referencing it.
func TestBalanceInvariant_RandomSequence(t *testing.T) {
	l := newTestLedger()
	seed := twoAccountState()
	s := seed

	check := func(step string) {
		t.Helper()
		for _, acc := range seed.Accounts {
			want := acc.Balance
			for _, tx := range s.Transactions {
				if tx.AccountID == acc.ID {
					want += SignedDelta(tx.Type, tx.Amount).InexactFloat64()
				}
			}
			if got := balanceOf(t, s, acc.ID); !almostEqual(got, want) {
				t.Fatalf("%s: balance %s = %v, want %v", step, acc.ID, got, want)
			}
		}
	}

	amounts := []float64{12.34, 5, 99.99, 0.01, 250, 7.77}
	types := []domain.TransactionType{domain.TransactionTypeIncome, domain.TransactionTypeExpense, domain.TransactionTypeTransfer}
	accounts := []string{"A", "B"}

	for i, amt := range amounts {
		draft := expense(accounts[i%2], amt)
		draft.Type = types[i%3]
		s = l.CreateTransaction(s, draft)
		check(fmt.Sprintf("create %d", i))
	}

	for i, tx := range append([]domain.Transaction{}, s.Transactions...) {
		amt := tx.Amount * 2
		typ := types[(i+1)%3]
		acc := accounts[(i+1)%2]
		s = l.UpdateTransaction(s, tx.ID, domain.TransactionUpdate{Amount: &amt, Type: &typ, AccountID: &acc})
		check(fmt.Sprintf("update %d", i))
	}

	for i, tx := range append([]domain.Transaction{}, s.Transactions...) {
		if i%2 == 0 {
			s = l.DeleteTransaction(s, tx.ID)
			check(fmt.Sprintf("delete %d", i))
		}
	}
}

func TestTransfer_NoBalanceEffect(t *testing.T) {
	// Transfers are stored but never move money between accounts.
	l := newTestLedger()
	draft := expense("A", 40)
	draft.Type = domain.TransactionTypeTransfer
	s := l.CreateTransaction(twoAccountState(), draft)
	if got := balanceOf(t, s, "A"); got != 100 {
		t.Errorf("transfer changed balance A to %v", got)
	}
	s = l.DeleteTransaction(s, s.Transactions[0].ID)
	if got := balanceOf(t, s, "A"); got != 100 {
		t.Errorf("deleting transfer changed balance A to %v", got)
	}
}
