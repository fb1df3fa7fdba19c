// Package app wires the configured components shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/assistant"
	"github.com/dvloznov/financeiro/internal/config"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/llm/gemini"
	"github.com/dvloznov/financeiro/internal/llm/openrouter"
	"github.com/dvloznov/financeiro/internal/recurring"
	"github.com/dvloznov/financeiro/internal/reducer"
	"github.com/dvloznov/financeiro/internal/statement"
	"github.com/dvloznov/financeiro/internal/store"
)

// App holds the live session and the services built around it.
type App struct {
	Config     config.Config
	Log        zerolog.Logger
	Ledger     *ledger.Ledger
	Recurring  *recurring.Processor
	Reconciler *importer.Reconciler
	Session    *store.Session
	Model      llm.ChatModel
	Dispatcher *assistant.Dispatcher
	Classifier *assistant.Classifier
	Statements *statement.Parser
}

// New opens the configured persister, loads the state and builds the
// assistant. A missing AI key is not an error: the assistant then answers
// with the not-configured message.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	l := ledger.New()
	proc := recurring.NewProcessor(l)
	rec := importer.NewReconciler(l, log)

	persister, err := store.NewPersister(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	session, err := store.NewSession(ctx, persister, reducer.New(l, proc, rec),
		store.LoadOptions{SeedAccounts: cfg.Defaults.SeedAccounts}, log)
	if err != nil {
		persister.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	model, err := NewChatModel(ctx, cfg.AI)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	if cfg.AI.APIKey == "" {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("No AI API key configured, assistant is disabled")
	}

	dispatcher := assistant.NewDispatcher(model, l, log,
		assistant.WithMaxRounds(cfg.AI.MaxRounds),
		assistant.WithHistoryTurns(cfg.AI.HistoryTurns),
		assistant.WithCallTimeout(cfg.AI.CallTimeout),
	)

	return &App{
		Config:     cfg,
		Log:        log,
		Ledger:     l,
		Recurring:  proc,
		Reconciler: rec,
		Session:    session,
		Model:      model,
		Dispatcher: dispatcher,
		Classifier: assistant.NewClassifier(model, log),
		Statements: statement.NewParser(model, log),
	}, nil
}

// NewChatModel builds the provider named by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (llm.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Title:   "Financeiro AI",
			Timeout: cfg.CallTimeout,
		}), nil
	case config.ProviderGemini, "":
		m, err := gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return nil, fmt.Errorf("NewChatModel: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("NewChatModel: unknown provider %q", cfg.Provider)
}

// Close saves nothing; every change is already persisted. It releases the
// persister.
func (a *App) Close() error {
	return a.Session.Close()
}
