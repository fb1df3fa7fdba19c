package reducer

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/recurring"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestReducer() *Reducer {
	n := 0
	l := ledger.New(
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return New(l, recurring.NewProcessor(l), importer.NewReconciler(l, zerolog.New(io.Discard)))
}

func baseState() domain.State {
	s := domain.InitialState()
	s.Accounts = []domain.Account{{ID: "acc", Name: "Conta", Type: domain.AccountTypeBank, Balance: 100, Currency: "BRL"}}
	return s
}

func mustDecode(t *testing.T, s string) Action {
	t.Helper()
	a, err := DecodeAction([]byte(s))
	if err != nil {
		t.Fatalf("DecodeAction(%s): %v", s, err)
	}
	return a
}

func TestApply_TransactionLifecycle(t *testing.T) {
	r := newTestReducer()
	state := baseState()

	state = r.Apply(state, mustDecode(t, `{"type":"ADD_TRANSACTION","payload":{
		"accountId":"acc","type":"expense","amount":40,"description":"Mercado",
		"categoryId":"cat_food","date":"2024-03-09T12:00:00.000Z"}}`))
	if state.Accounts[0].Balance != 60 || len(state.Transactions) != 1 {
		t.Fatalf("after add: balance=%v txs=%d", state.Accounts[0].Balance, len(state.Transactions))
	}
	id := state.Transactions[0].ID

	state = r.Apply(state, mustDecode(t, fmt.Sprintf(`{"type":"UPDATE_TRANSACTION","payload":{"id":%q,"updates":{"amount":10}}}`, id)))
	if state.Accounts[0].Balance != 90 {
		t.Errorf("after update: balance=%v, want 90", state.Accounts[0].Balance)
	}

	state = r.Apply(state, mustDecode(t, fmt.Sprintf(`{"type":"DELETE_TRANSACTION","payload":%q}`, id)))
	if state.Accounts[0].Balance != 100 || len(state.Transactions) != 0 {
		t.Errorf("after delete: balance=%v txs=%d", state.Accounts[0].Balance, len(state.Transactions))
	}
}

func TestApply_AddTransactionWithFrequencyCreatesRule(t *testing.T) {
	r := newTestReducer()
	state := r.Apply(baseState(), mustDecode(t, `{"type":"ADD_TRANSACTION","payload":{
		"accountId":"acc","type":"expense","amount":50,"description":"Internet",
		"categoryId":"cat_bills","date":"2024-03-05T12:00:00Z","frequency":"monthly"}}`))

	if len(state.RecurringRules) != 1 {
		t.Fatalf("rules = %d, want 1", len(state.RecurringRules))
	}
	rule := state.RecurringRules[0]
	tx := state.Transactions[0]
	if !tx.IsRecurring || tx.RecurringRuleID != rule.ID {
		t.Errorf("transaction not linked to rule: %+v", tx)
	}
	if want := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC); !rule.NextDate.Equal(want) {
		t.Errorf("nextDate = %v, want %v", rule.NextDate, want)
	}
}

func TestApply_CheckRecurringRulesUsesLedgerClock(t *testing.T) {
	r := newTestReducer()
	state := baseState()
	state.RecurringRules = []domain.RecurringRule{{
		ID: "r1", Frequency: domain.FrequencyWeekly, Active: true, Amount: 5,
		Type: domain.TransactionTypeExpense, AccountID: "acc",
		NextDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}}

	state = r.Apply(state, mustDecode(t, `{"type":"CHECK_RECURRING_RULES"}`))
	if len(state.Transactions) != 1 || state.Accounts[0].Balance != 95 {
		t.Fatalf("rule did not fire: txs=%d balance=%v", len(state.Transactions), state.Accounts[0].Balance)
	}
	if want := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC); !state.RecurringRules[0].NextDate.Equal(want) {
		t.Errorf("nextDate = %v, want %v", state.RecurringRules[0].NextDate, want)
	}
}

func TestApply_CatalogAndSettings(t *testing.T) {
	r := newTestReducer()
	state := baseState()

	state = r.Apply(state, mustDecode(t, `{"type":"ADD_ACCOUNT","payload":{"name":"Nubank","type":"credit","balance":-10}}`))
	state = r.Apply(state, mustDecode(t, `{"type":"ADD_CATEGORY","payload":{"name":"Pets","type":"expense","isDefault":true}}`))
	state = r.Apply(state, mustDecode(t, `{"type":"UPDATE_SETTINGS","payload":{"theme":"dark"}}`))
	state = r.Apply(state, mustDecode(t, `{"type":"DELETE_CATEGORY","payload":"cat_salary"}`))

	acc := state.Accounts[len(state.Accounts)-1]
	if acc.Name != "Nubank" || acc.Icon != "CreditCard" || acc.Currency != "BRL" {
		t.Errorf("account = %+v", acc)
	}
	cat := state.Categories[len(state.Categories)-1]
	if cat.Name != "Pets" || cat.IsDefault {
		t.Errorf("category = %+v", cat)
	}
	if _, ok := state.FindCategory("cat_salary"); !ok {
		t.Errorf("default category was deleted")
	}
	if state.Settings.Theme != "dark" || state.Settings.Language != "pt-BR" {
		t.Errorf("settings = %+v", state.Settings)
	}

	state = r.Apply(state, mustDecode(t, fmt.Sprintf(`{"type":"DELETE_CATEGORY","payload":%q}`, cat.ID)))
	if _, ok := state.FindCategory(cat.ID); ok {
		t.Errorf("user category was kept")
	}
}

func TestApply_ChatAndLoadState(t *testing.T) {
	r := newTestReducer()
	state := r.Apply(baseState(), mustDecode(t, `{"type":"ADD_CHAT_MESSAGE","payload":{"role":"user","content":"oi"}}`))
	if len(state.ChatHistory) != 1 || state.ChatHistory[0].Content != "oi" {
		t.Fatalf("chat = %+v", state.ChatHistory)
	}
	state = r.Apply(state, ClearChat{})
	if len(state.ChatHistory) != 0 {
		t.Errorf("chat not cleared")
	}

	loaded := r.Apply(state, LoadState{State: domain.State{Accounts: []domain.Account{{ID: "x"}}}})
	if len(loaded.Accounts) != 1 || loaded.Transactions == nil {
		t.Errorf("loaded state = %+v", loaded)
	}
}

func TestApply_BatchImport(t *testing.T) {
	r := newTestReducer()
	state := r.Apply(baseState(), mustDecode(t, `{"type":"BATCH_IMPORT_TRANSACTIONS","payload":[
		{"row":2,"description":"Salário","amount":1000,"type":"income","categoryId":"cat_salary","accountId":"acc","date":"2024-03-01T12:00:00Z","currency":"BRL"},
		{"row":3,"description":"Uber","amount":20,"type":"expense","accountLabel":"Cartão Novo","categoryLabel":"Transporte","date":"2024-03-02T12:00:00Z"}
	]}`))
	if len(state.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(state.Transactions))
	}
	if state.Accounts[0].Balance != 1100 {
		t.Errorf("acc balance = %v", state.Accounts[0].Balance)
	}
	if len(state.Accounts) != 2 || state.Accounts[1].Name != "Cartão Novo" || state.Accounts[1].Balance != -20 {
		t.Errorf("created account = %+v", state.Accounts)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	r := newTestReducer()
	state := baseState()
	_ = r.Apply(state, AddTransaction{Draft: domain.TransactionDraft{
		AccountID: "acc", Type: domain.TransactionTypeIncome, Amount: 1, Date: testNow,
	}})
	if state.Accounts[0].Balance != 100 || len(state.Transactions) != 0 {
		t.Errorf("input state mutated: %+v", state.Accounts[0])
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		unknown bool
	}{
		{name: "not json", in: `{`},
		{name: "unknown type", in: `{"type":"NOPE","payload":{}}`, unknown: true},
		{name: "delete needs id", in: `{"type":"DELETE_ACCOUNT","payload":""}`},
		{name: "missing payload", in: `{"type":"ADD_ACCOUNT"}`},
		{name: "bad chat role", in: `{"type":"ADD_CHAT_MESSAGE","payload":{"role":"system","content":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAction([]byte(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrUnknownAction) != tt.unknown {
				t.Errorf("errors.Is(ErrUnknownAction) = %v, want %v", !tt.unknown, tt.unknown)
			}
		})
	}
}
