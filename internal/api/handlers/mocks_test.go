package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/assistant"
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/jobs"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/recurring"
	"github.com/dvloznov/financeiro/internal/reducer"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestReducer() *reducer.Reducer {
	n := 0
	l := ledger.New(
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return reducer.New(l, recurring.NewProcessor(l), importer.NewReconciler(l, zerolog.Nop()))
}

// MockSession keeps state in memory and applies actions with a real reducer.
type MockSession struct {
	mu        sync.Mutex
	state     domain.State
	reducer   *reducer.Reducer
	actions   []string
	UpdateErr error
}

func newMockSession(r *reducer.Reducer, s domain.State) *MockSession {
	return &MockSession{state: s, reducer: r}
}

func (m *MockSession) Snapshot() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *MockSession) Update(ctx context.Context, action string, fn func(domain.State) domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = fn(m.state)
	m.actions = append(m.actions, action)
	return m.UpdateErr
}

func (m *MockSession) Dispatch(ctx context.Context, a reducer.Action) error {
	return m.Update(ctx, string(a.Kind()), func(s domain.State) domain.State {
		return m.reducer.Apply(s, a)
	})
}

// MockAssistant implements Assistant for testing.
type MockAssistant struct {
	SendFunc func(ctx context.Context, store assistant.StateStore, text, image string) assistant.Exchange
}

func (m *MockAssistant) Send(ctx context.Context, store assistant.StateStore, text, image string) assistant.Exchange {
	return m.SendFunc(ctx, store, text, image)
}

// MockClassifier implements Classifier for testing.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, description string, categories []string) (assistant.Suggestion, bool)
}

func (m *MockClassifier) Classify(ctx context.Context, description string, categories []string) (assistant.Suggestion, bool) {
	return m.ClassifyFunc(ctx, description, categories)
}

// MockPublisher implements jobs.Publisher for testing.
type MockPublisher struct {
	PublishImportFunc func(ctx context.Context, job *jobs.ImportJob) error
}

func (m *MockPublisher) PublishImport(ctx context.Context, job *jobs.ImportJob) error {
	return m.PublishImportFunc(ctx, job)
}

func (m *MockPublisher) Close() error { return nil }
