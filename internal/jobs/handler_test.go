package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/logger"
)

// MockStateStore applies updates to State and can fail after applying.
type MockStateStore struct {
	State   domain.State
	Actions []string
	Err     error
}

func (m *MockStateStore) Snapshot() domain.State { return m.State }

func (m *MockStateStore) Update(_ context.Context, action string, fn func(domain.State) domain.State) error {
	m.State = fn(m.State)
	m.Actions = append(m.Actions, action)
	return m.Err
}

func TestImportHandler(t *testing.T) {
	l := ledger.New()
	state := domain.InitialState()
	state.Accounts = []domain.Account{{ID: "acc", Name: "Conta", Balance: 0, Currency: "BRL"}}
	updater := &MockStateStore{State: state}
	handler := NewImportHandler(updater, importer.NewReconciler(l, zerolog.New(io.Discard)), nil, zerolog.New(io.Discard))

	job := &ImportJob{JobID: "j1", Rows: []importer.Row{
		{Row: 2, Description: "Pix", Amount: 50, Type: domain.TransactionTypeIncome, AccountID: "acc", Date: time.Now()},
		{Row: 3, Description: "Bad", Amount: 0, Type: domain.TransactionTypeExpense, AccountID: "acc", Date: time.Now()},
	}}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if job.Report == nil || job.Report.Imported != 1 || job.Report.Skipped != 1 {
		t.Errorf("report = %+v", job.Report)
	}
	if updater.State.Accounts[0].Balance != 50 || len(updater.Actions) != 1 || updater.Actions[0] != "BATCH_IMPORT_TRANSACTIONS" {
		t.Errorf("state/actions = %v %v", updater.State.Accounts[0].Balance, updater.Actions)
	}
}

func TestImportHandler_SaveFailureIsPermanent(t *testing.T) {
	updater := &MockStateStore{State: domain.InitialState(), Err: errors.New("disk full")}
	handler := NewImportHandler(updater, importer.NewReconciler(ledger.New(), zerolog.New(io.Discard)), nil, zerolog.New(io.Discard))

	err := handler(context.Background(), &ImportJob{JobID: "j1"})
	if err == nil || !IsPermanent(err) {
		t.Errorf("err = %v, want permanent", err)
	}
}

// MockStatementParser answers Parse through ParseFunc.
type MockStatementParser struct {
	ParseFunc func(ctx context.Context, doc llm.Image, accountID string, state domain.State) ([]importer.Row, map[int]string, error)
	Calls     int
}

func (m *MockStatementParser) Parse(ctx context.Context, doc llm.Image, accountID string, state domain.State) ([]importer.Row, map[int]string, error) {
	m.Calls++
	return m.ParseFunc(ctx, doc, accountID, state)
}

func TestImportHandler_Statement(t *testing.T) {
	state := domain.InitialState()
	store := &MockStateStore{State: state}
	parser := &MockStatementParser{ParseFunc: func(_ context.Context, doc llm.Image, accountID string, s domain.State) ([]importer.Row, map[int]string, error) {
		if doc.MIMEType != "application/pdf" || accountID != "acc_nubank" || len(s.Accounts) == 0 {
			t.Errorf("Parse got %q %q %d accounts", doc.MIMEType, accountID, len(s.Accounts))
		}
		return []importer.Row{
			{Row: 1, Description: "Padaria", Amount: 6.73, Type: domain.TransactionTypeExpense, AccountID: accountID, CategoryID: "cat_food", Date: time.Now()},
		}, map[int]string{2: "Data inválida"}, nil
	}}
	handler := NewImportHandler(store, importer.NewReconciler(ledger.New(), zerolog.New(io.Discard)), parser, zerolog.New(io.Discard))

	job := &ImportJob{JobID: "j1", Type: JobTypeStatement, AccountID: "acc_nubank", Document: &llm.Image{MIMEType: "application/pdf", Data: []byte("%PDF")}}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if job.Document != nil || len(job.Rows) != 1 || job.ParseErrors[2] == "" {
		t.Errorf("job after parse = %+v", job)
	}
	if job.Report == nil || job.Report.Imported != 1 {
		t.Errorf("report = %+v", job.Report)
	}
	acc, _ := store.State.FindAccount("acc_nubank")
	if acc.Balance != 0 {
		t.Errorf("balance = %v, want 0", acc.Balance)
	}
}

func TestImportHandler_StatementErrors(t *testing.T) {
	parseErr := errors.New("model unavailable")
	tests := []struct {
		name      string
		parser    StatementParser
		permanent bool
	}{
		{name: "no parser", parser: nil, permanent: true},
		{
			name: "parse failure is retried",
			parser: &MockStatementParser{ParseFunc: func(context.Context, llm.Image, string, domain.State) ([]importer.Row, map[int]string, error) {
				return nil, nil, parseErr
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStateStore{State: domain.InitialState()}
			handler := NewImportHandler(store, importer.NewReconciler(ledger.New(), zerolog.New(io.Discard)), tt.parser, zerolog.New(io.Discard))
			job := &ImportJob{JobID: "j1", Type: JobTypeStatement, Document: &llm.Image{MIMEType: "image/png"}}

			err := handler(context.Background(), job)
			if err == nil {
				t.Fatal("expected error")
			}
			if IsPermanent(err) != tt.permanent {
				t.Errorf("permanent = %v, want %v", IsPermanent(err), tt.permanent)
			}
			if job.Document == nil || len(store.Actions) != 0 {
				t.Errorf("failed parse must leave the job and state untouched")
			}
		})
	}
}

func TestImportHandler_LogsWithContextLogger(t *testing.T) {
	store := &MockStateStore{State: domain.InitialState()}
	handler := NewImportHandler(store, importer.NewReconciler(ledger.New(), zerolog.New(io.Discard)), nil, zerolog.New(io.Discard))

	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), zerolog.New(buf).With().Str("worker", "w1").Logger())
	if err := handler(ctx, &ImportJob{JobID: "j1"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"worker":"w1"`) || !strings.Contains(out, "Import job finished") {
		t.Errorf("log output = %s", out)
	}
}

func TestImportJob_GetType(t *testing.T) {
	if (&ImportJob{}).GetType() != JobTypeImport {
		t.Error("default type should be import")
	}
	if (&ImportJob{Type: JobTypeStatement}).GetType() != JobTypeStatement {
		t.Error("statement type lost")
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("x")
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if !errors.Is(Permanent(base), base) || IsPermanent(base) {
		t.Error("Permanent must wrap and be detectable")
	}
}
