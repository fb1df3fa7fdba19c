package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/assistant"
	"github.com/dvloznov/financeiro/internal/config"
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/reducer"
	"github.com/dvloznov/financeiro/internal/store"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Store: store.Config{Backend: store.BackendFile, Path: filepath.Join(t.TempDir(), "state.json")},
		AI:    config.AIConfig{Provider: config.ProviderGemini, MaxRounds: 5, HistoryTurns: 10},
	}
}

func TestNew_WithoutAPIKey(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if len(a.Session.Snapshot().Categories) == 0 {
		t.Error("defaults were not loaded")
	}
	if _, err := a.Model.Chat(ctx, llm.Request{}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("Chat err = %v, want ErrNotConfigured", err)
	}

	ex := a.Dispatcher.Send(ctx, a.Session, "oi", "")
	if ex.Reply != assistant.MsgNotConfigured {
		t.Errorf("reply = %q", ex.Reply)
	}
}

func TestNewChatModel(t *testing.T) {
	ctx := context.Background()
	if _, err := NewChatModel(ctx, config.AIConfig{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	m, err := NewChatModel(ctx, config.AIConfig{Provider: config.ProviderOpenRouter})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Chat(ctx, llm.Request{}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("openrouter without key: err = %v", err)
	}
}

func TestCheckRecurring(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if n, err := a.CheckRecurring(ctx); err != nil || n != 0 {
		t.Fatalf("empty check = %d, %v", n, err)
	}

	yesterday := time.Now().AddDate(0, 0, -1)
	rule := domain.RecurringRule{
		Frequency:   domain.FrequencyMonthly,
		StartDate:   yesterday,
		NextDate:    yesterday,
		Amount:      99.9,
		Description: "Academia",
		CategoryID:  "cat_health",
		AccountID:   "acc_nubank",
		Type:        domain.TransactionTypeExpense,
		Active:      true,
	}
	if err := a.Session.Dispatch(ctx, reducer.AddRecurringRule{Rule: rule}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	n, err := a.CheckRecurring(ctx)
	if err != nil || n != 1 {
		t.Fatalf("check = %d, %v", n, err)
	}
	state := a.Session.Snapshot()
	if len(state.Transactions) != 1 || state.Transactions[0].Description != "Academia" {
		t.Errorf("transactions = %+v", state.Transactions)
	}

	if n, _ := a.CheckRecurring(ctx); n != 0 {
		t.Errorf("second check fired %d", n)
	}
}

func TestRunScheduler_StopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunScheduler(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
