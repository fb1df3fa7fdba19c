package ledger

import (
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
)

// CreateRule appends a recurring rule with a fresh id and creation time.
// LastGenerated is always cleared.
func (l *Ledger) CreateRule(state domain.State, r domain.RecurringRule) (domain.State, string) {
	r.ID = l.newID()
	r.CreatedAt = l.now()
	r.LastGenerated = nil
	next := state.Clone()
	next.RecurringRules = append(next.RecurringRules, r)
	return next, r.ID
}

// RuleFromDraft builds the rule created when a transaction form is submitted
// with recurring enabled: it starts at the draft date and first fires one
// step later.
func RuleFromDraft(draft domain.TransactionDraft, freq domain.Frequency) domain.RecurringRule {
	return domain.RecurringRule{
		Frequency:   freq,
		StartDate:   draft.Date,
		NextDate:    freq.Next(draft.Date),
		Amount:      draft.Amount,
		Description: draft.Description,
		CategoryID:  draft.CategoryID,
		AccountID:   draft.AccountID,
		Type:        draft.Type,
		Active:      true,
	}
}

// CreateRecurringTransaction records draft as a transaction and registers
// the matching rule. The transaction is tagged with the new rule's id.
func (l *Ledger) CreateRecurringTransaction(state domain.State, draft domain.TransactionDraft, freq domain.Frequency) domain.State {
	next, ruleID := l.CreateRule(state, RuleFromDraft(draft, freq))
	draft.IsRecurring = true
	draft.RecurringRuleID = ruleID
	return l.CreateTransaction(next, draft)
}

func (l *Ledger) UpdateRule(state domain.State, id string, u domain.RecurringRuleUpdate) domain.State {
	if _, ok := state.FindRule(id); !ok {
		return state
	}
	next := state.Clone()
	for i := range next.RecurringRules {
		r := &next.RecurringRules[i]
		if r.ID != id {
			continue
		}
		if u.Frequency != nil {
			r.Frequency = *u.Frequency
		}
		if u.NextDate != nil {
			r.NextDate = *u.NextDate
		}
		if u.Amount != nil {
			r.Amount = *u.Amount
		}
		if u.Description != nil {
			r.Description = *u.Description
		}
		if u.CategoryID != nil {
			r.CategoryID = *u.CategoryID
		}
		if u.AccountID != nil {
			r.AccountID = *u.AccountID
		}
		if u.Type != nil {
			r.Type = *u.Type
		}
		if u.Active != nil {
			r.Active = *u.Active
		}
	}
	return next
}

// MarkGenerated stamps a rule as fired at generatedAt and moves it to nextDate.
func (l *Ledger) MarkGenerated(state domain.State, id string, nextDate, generatedAt time.Time) domain.State {
	if _, ok := state.FindRule(id); !ok {
		return state
	}
	next := state.Clone()
	for i := range next.RecurringRules {
		if next.RecurringRules[i].ID == id {
			g := generatedAt
			next.RecurringRules[i].LastGenerated = &g
			next.RecurringRules[i].NextDate = nextDate
		}
	}
	return next
}

func (l *Ledger) DeleteRule(state domain.State, id string) domain.State {
	if _, ok := state.FindRule(id); !ok {
		return state
	}
	next := state.Clone()
	kept := next.RecurringRules[:0]
	for _, r := range next.RecurringRules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	next.RecurringRules = kept
	return next
}
