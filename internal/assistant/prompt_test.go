package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
)

func TestBuildFinancialContext(t *testing.T) {
	l := testLedger()
	state := walletFoodState()
	state = l.CreateTransaction(state, domain.TransactionDraft{
		AccountID: "wallet", Type: domain.TransactionTypeExpense, Amount: 25, Description: "Lunch",
		CategoryID: "food", Date: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	})
	state = l.CreateTransaction(state, domain.TransactionDraft{
		AccountID: "wallet", Type: domain.TransactionTypeIncome, Amount: 100, Description: "Pix",
		CategoryID: "gone", Date: time.Date(2023, 12, 30, 12, 0, 0, 0, time.UTC),
	})

	got := BuildFinancialContext(state, testNow)

	for _, want := range []string{
		"=== CONTEXTO FINANCEIRO DO USUÁRIO ===",
		"Data atual: 2024-01-20 (20 de janeiro de 2024)",
		"Saldo total: R$ 75.00",
		"  - Wallet (id: wallet): R$ 75.00",
		"  - Food (id: food, tipo: expense)",
		"Resumo do mês (janeiro de 2024):",
		"  - Receitas: R$ 0.00",
		"  - Despesas: R$ 25.00",
		"  - Balanço: R$ -25.00",
		"  - Lunch (Food): R$ 25.00",
		"  - [2024-01-05] ➖ Lunch: R$ 25.00 (Food, Wallet)",
		"  - [2023-12-30] ➕ Pix: R$ 100.00 (?, Wallet)",
		"Total de transações: 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q\n%s", want, got)
		}
	}
	if strings.Index(got, "[2024-01-05]") > strings.Index(got, "[2023-12-30]") {
		t.Errorf("recent transactions not sorted newest first")
	}
}

func TestBuildFinancialContext_Empty(t *testing.T) {
	state := walletFoodState()
	state.Accounts = nil
	got := BuildFinancialContext(state, testNow)
	for _, want := range []string{"(nenhuma conta)", "(nenhuma)", "(nenhuma transação)"} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}
}
