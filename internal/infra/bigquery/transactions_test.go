package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/financeiro/internal/domain"
)

func TestRowsFromState(t *testing.T) {
	exported := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	state := domain.State{
		Accounts:   []domain.Account{{ID: "acc", Name: "Nubank"}},
		Categories: []domain.Category{{ID: "cat", Name: "Mercado"}},
		Transactions: []domain.Transaction{
			{ID: "t1", AccountID: "acc", CategoryID: "cat", Type: domain.TransactionTypeExpense, Amount: 12.34,
				Currency: "BRL", Description: "Pão", Date: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)},
			{ID: "t2", AccountID: "gone", CategoryID: "", Type: domain.TransactionTypeTransfer, Amount: 50,
				Currency: "BRL", Notes: "poupança", Date: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)},
		},
	}

	rows := RowsFromState(state, "exp-1", exported)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	r := rows[0]
	if r.ExportID != "exp-1" || r.TransactionDate != (civil.Date{Year: 2024, Month: time.January, Day: 31}) {
		t.Errorf("row 0 keys = %+v", r)
	}
	if r.Amount.Cmp(big.NewRat(1234, 100)) != 0 || r.SignedAmount.Cmp(big.NewRat(-1234, 100)) != 0 {
		t.Errorf("amounts = %s / %s", r.Amount.RatString(), r.SignedAmount.RatString())
	}
	if !r.AccountName.Valid || r.AccountName.StringVal != "Nubank" || r.CategoryName.StringVal != "Mercado" {
		t.Errorf("names = %+v %+v", r.AccountName, r.CategoryName)
	}
	if r.Notes.Valid {
		t.Errorf("empty notes should be NULL")
	}

	r = rows[1]
	if r.SignedAmount.Sign() != 0 {
		t.Errorf("transfer signed amount = %s, want 0", r.SignedAmount.RatString())
	}
	if r.AccountName.Valid || r.CategoryName.Valid || r.Notes.StringVal != "poupança" {
		t.Errorf("row 1 = %+v", r)
	}
}
