package assistant

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/llm"
)

// MockChatModel records requests and answers through ChatFunc.
type MockChatModel struct {
	ChatFunc func(ctx context.Context, req llm.Request, call int) (llm.Reply, error)
	Requests []llm.Request
}

func (m *MockChatModel) Chat(ctx context.Context, req llm.Request) (llm.Reply, error) {
	m.Requests = append(m.Requests, req)
	return m.ChatFunc(ctx, req, len(m.Requests))
}

// memStore applies updates to a single in-memory State.
type memStore struct {
	state   domain.State
	actions []string
}

func (m *memStore) Snapshot() domain.State { return m.state }

func (m *memStore) Update(_ context.Context, action string, fn func(domain.State) domain.State) error {
	m.state = fn(m.state)
	m.actions = append(m.actions, action)
	return nil
}

var testNow = time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC)

func testLedger() *ledger.Ledger {
	n := 0
	return ledger.New(
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func walletFoodState() domain.State {
	return domain.State{
		Transactions:   []domain.Transaction{},
		Accounts:       []domain.Account{{ID: "wallet", Name: "Wallet", Type: domain.AccountTypeCash, Balance: 0, Currency: "BRL"}},
		Categories:     []domain.Category{{ID: "food", Name: "Food", Type: domain.CategoryTypeExpense}},
		Budgets:        []domain.Budget{},
		RecurringRules: []domain.RecurringRule{},
		Settings:       domain.DefaultSettings(),
		ChatHistory:    []domain.ChatMessage{},
	}
}

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: []byte(args)}
}
