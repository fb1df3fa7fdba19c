// Package statement extracts transactions from bank statements and receipts
// (PDF or image) with the chat model and turns them into import rows.
package statement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/resolver"
)

// ErrEmptyReply is returned when the model answered with no text.
var ErrEmptyReply = errors.New("statement: empty response from model")

const dateLayout = "2006-01-02"

// Entry is one transaction as the model reports it. Amount is signed:
// positive for money in, negative for money out.
type Entry struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Account     string  `json:"account"`
	Notes       string  `json:"notes"`
}

// Parser sends documents to the model and maps the answer onto rows.
type Parser struct {
	model llm.ChatModel
	log   zerolog.Logger
}

func NewParser(model llm.ChatModel, log zerolog.Logger) *Parser {
	return &Parser{model: model, log: log}
}

// Parse extracts the transactions in doc. When accountID is set every row is
// booked to it; otherwise the account named by the model is used, and a new
// account is created on import if none matches. Entries that cannot be used
// are returned as errors keyed by their 1-based position.
func (p *Parser) Parse(ctx context.Context, doc llm.Image, accountID string, state domain.State) ([]importer.Row, map[int]string, error) {
	reply, err := p.model.Chat(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: BuildPrompt(state),
			Image:   &doc,
		}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("statement: parse: %w", err)
	}
	if strings.TrimSpace(reply.Text) == "" {
		return nil, nil, ErrEmptyReply
	}

	log := logger.FromContextOr(ctx, p.log)
	entries, err := DecodeEntries(reply.Text)
	if err != nil {
		log.Warn().Err(err).Str("reply", truncate(reply.Text, 200)).Msg("Model returned unusable statement JSON")
		return nil, nil, err
	}

	rows, rowErrs := ToRows(entries, accountID, state)
	log.Info().
		Str("mime_type", doc.MIMEType).
		Int("entries", len(entries)).
		Int("rows", len(rows)).
		Int("rejected", len(rowErrs)).
		Msg("Statement parsed")
	return rows, rowErrs, nil
}

// DecodeEntries reads the model's JSON array, tolerating Markdown fences and
// text around it.
func DecodeEntries(raw string) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &entries); err != nil {
		return nil, fmt.Errorf("statement: decode model output: %w", err)
	}
	return entries, nil
}

func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// ToRows validates entries and resolves their labels against state.
func ToRows(entries []Entry, accountID string, state domain.State) ([]importer.Row, map[int]string) {
	rows := make([]importer.Row, 0, len(entries))
	errs := map[int]string{}

	for i, e := range entries {
		n := i + 1
		if err := validateEntry(e); err != nil {
			errs[n] = err.Error()
			continue
		}
		date, _ := time.Parse(dateLayout, strings.TrimSpace(e.Date))

		typ := domain.TransactionTypeIncome
		if e.Amount < 0 {
			typ = domain.TransactionTypeExpense
		}
		currency := strings.ToUpper(strings.TrimSpace(e.Currency))
		if currency == "" {
			currency = state.Settings.DefaultCurrency
		}

		row := importer.Row{
			Row:         n,
			Description: strings.TrimSpace(e.Description),
			Amount:      math.Abs(e.Amount),
			Type:        typ,
			Date:        date,
			Currency:    currency,
			Notes:       strings.TrimSpace(e.Notes),
			Warnings:    []string{},
		}

		switch c, kind := resolver.Category(state.Categories, e.Category, domain.CategoryTypeFor(typ)); kind {
		case resolver.NoMatch:
			row.CategoryLabel = strings.TrimSpace(e.Category)
		case resolver.MatchExact, resolver.MatchPartial:
			row.CategoryID = c.ID
		default:
			row.CategoryID = c.ID
			row.Warnings = append(row.Warnings, fmt.Sprintf("Categoria %q não encontrada, usando %q", e.Category, c.Name))
		}

		if accountID != "" {
			row.AccountID = accountID
		} else if a, ok := resolver.FindAccountExact(state.Accounts, e.Account); ok {
			row.AccountID = a.ID
		} else {
			row.AccountLabel = strings.TrimSpace(e.Account)
			row.Warnings = append(row.Warnings, fmt.Sprintf("Conta %q não encontrada", e.Account))
		}

		rows = append(rows, row)
	}
	return rows, errs
}

func validateEntry(e Entry) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(e.Date)); err != nil {
		return fmt.Errorf("Data inválida: %q", e.Date)
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("Descrição vazia")
	}
	if e.Amount == 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return fmt.Errorf("Valor inválido: %v", e.Amount)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
