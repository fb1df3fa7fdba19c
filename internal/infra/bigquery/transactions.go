package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
)

// TransactionRow is one exported ledger transaction. Every export run writes
// a full copy of the ledger tagged with its own ExportID.
type TransactionRow struct {
	ExportID      string `bigquery:"export_id"`      // REQUIRED
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Type            string     `bigquery:"type"`             // REQUIRED

	Amount       *big.Rat `bigquery:"amount"`        // REQUIRED NUMERIC, always positive
	SignedAmount *big.Rat `bigquery:"signed_amount"` // REQUIRED NUMERIC, balance effect
	Currency     string   `bigquery:"currency"`      // REQUIRED

	Description string              `bigquery:"description"`
	Notes       bigquery.NullString `bigquery:"notes"`

	AccountID    string              `bigquery:"account_id"`
	AccountName  bigquery.NullString `bigquery:"account_name"`
	CategoryID   string              `bigquery:"category_id"`
	CategoryName bigquery.NullString `bigquery:"category_name"`

	IsRecurring     bool                `bigquery:"is_recurring"`
	RecurringRuleID bigquery.NullString `bigquery:"recurring_rule_id"`

	CreatedTS  time.Time `bigquery:"created_ts"`
	UpdatedTS  time.Time `bigquery:"updated_ts"`
	ExportedTS time.Time `bigquery:"exported_ts"`
}

// TransactionsDDL creates the export table. The two %s are the dataset and
// table, qualified with the project by the caller.
const TransactionsDDL = "CREATE TABLE IF NOT EXISTS `%s` (" + `
	export_id         STRING NOT NULL,
	transaction_id    STRING NOT NULL,
	transaction_date  DATE NOT NULL,
	type              STRING NOT NULL,
	amount            NUMERIC NOT NULL,
	signed_amount     NUMERIC NOT NULL,
	currency          STRING NOT NULL,
	description       STRING,
	notes             STRING,
	account_id        STRING,
	account_name      STRING,
	category_id       STRING,
	category_name     STRING,
	is_recurring      BOOL,
	recurring_rule_id STRING,
	created_ts        TIMESTAMP,
	updated_ts        TIMESTAMP,
	exported_ts       TIMESTAMP NOT NULL
)
PARTITION BY transaction_date`

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// RowsFromState flattens the ledger into export rows, resolving account and
// category names.
func RowsFromState(state domain.State, exportID string, exportedAt time.Time) []*TransactionRow {
	rows := make([]*TransactionRow, 0, len(state.Transactions))
	for _, t := range state.Transactions {
		row := &TransactionRow{
			ExportID:        exportID,
			TransactionID:   t.ID,
			TransactionDate: civil.DateOf(t.Date),
			Type:            string(t.Type),
			Amount:          decimal.NewFromFloat(t.Amount).Rat(),
			SignedAmount:    ledger.SignedDelta(t.Type, t.Amount).Rat(),
			Currency:        t.Currency,
			Description:     t.Description,
			Notes:           nullString(t.Notes),
			AccountID:       t.AccountID,
			CategoryID:      t.CategoryID,
			IsRecurring:     t.IsRecurring,
			RecurringRuleID: nullString(t.RecurringRuleID),
			CreatedTS:       t.CreatedAt,
			UpdatedTS:       t.UpdatedAt,
			ExportedTS:      exportedAt,
		}
		if a, ok := state.FindAccount(t.AccountID); ok {
			row.AccountName = nullString(a.Name)
		}
		if c, ok := state.FindCategory(t.CategoryID); ok {
			row.CategoryName = nullString(c.Name)
		}
		rows = append(rows, row)
	}
	return rows
}
