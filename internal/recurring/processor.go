// Package recurring materializes transactions from due recurring rules.
package recurring

import (
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
)

// Processor fires due rules through the ledger.
type Processor struct {
	ledger *ledger.Ledger
}

func NewProcessor(l *ledger.Ledger) *Processor {
	return &Processor{ledger: l}
}

// Result describes one processing run.
type Result struct {
	State domain.State
	// Fired lists the ids of the rules that produced a transaction.
	Fired []string
}

// Changed reports whether any rule fired.
func (r Result) Changed() bool {
	return len(r.Fired) > 0
}

// IsDue reports whether rule should fire on the day of now. Both dates are
// compared at day granularity in now's location.
func IsDue(rule domain.RecurringRule, now time.Time) bool {
	if !rule.Active {
		return false
	}
	next := domain.TruncateDay(rule.NextDate.In(now.Location()))
	return !next.After(domain.TruncateDay(now))
}

// ProcessDueRules fires every active rule whose next date is on or before
// today. Each rule fires at most once per call, even when it is overdue by
// several periods; later calls catch up one period at a time.
func (p *Processor) ProcessDueRules(state domain.State, now time.Time) Result {
	res := Result{State: state}
	for _, rule := range state.RecurringRules {
		if !IsDue(rule, now) {
			continue
		}
		res.State = p.fire(res.State, rule, now)
		res.Fired = append(res.Fired, rule.ID)
	}
	return res
}

func (p *Processor) fire(state domain.State, rule domain.RecurringRule, now time.Time) domain.State {
	currency := state.Settings.DefaultCurrency
	if acc, ok := state.FindAccount(rule.AccountID); ok && acc.Currency != "" {
		currency = acc.Currency
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	next := p.ledger.CreateTransaction(state, domain.TransactionDraft{
		AccountID:       rule.AccountID,
		Type:            rule.Type,
		Amount:          rule.Amount,
		Currency:        currency,
		Description:     rule.Description,
		CategoryID:      rule.CategoryID,
		Date:            domain.TruncateDay(rule.NextDate.In(now.Location())),
		IsRecurring:     true,
		RecurringRuleID: rule.ID,
	})
	return p.ledger.MarkGenerated(next, rule.ID, rule.Frequency.Next(rule.NextDate), now)
}

// Due lists the active rules that would fire at now, without changing state.
func Due(state domain.State, now time.Time) []domain.RecurringRule {
	var out []domain.RecurringRule
	for _, r := range state.RecurringRules {
		if IsDue(r, now) {
			out = append(out, r)
		}
	}
	return out
}
