package reducer

import (
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/recurring"
)

// Reducer computes the next State for an Action. It never mutates its input.
type Reducer struct {
	ledger    *ledger.Ledger
	recurring *recurring.Processor
	importer  *importer.Reconciler
}

func New(l *ledger.Ledger, p *recurring.Processor, r *importer.Reconciler) *Reducer {
	return &Reducer{ledger: l, recurring: p, importer: r}
}

// Ledger exposes the engine the reducer applies actions through.
func (r *Reducer) Ledger() *ledger.Ledger {
	return r.ledger
}

// Apply returns the state after action. Unknown ids leave the state as is.
func (r *Reducer) Apply(state domain.State, action Action) domain.State {
	l := r.ledger
	switch a := action.(type) {
	case AddTransaction:
		if a.Frequency.Valid() {
			return l.CreateRecurringTransaction(state, a.Draft, a.Frequency)
		}
		return l.CreateTransaction(state, a.Draft)
	case UpdateTransaction:
		return l.UpdateTransaction(state, a.ID, a.Update)
	case DeleteTransaction:
		return l.DeleteTransaction(state, a.ID)

	case AddAccount:
		next, _ := l.CreateAccount(state, a.Account)
		return next
	case UpdateAccount:
		return l.UpdateAccount(state, a.ID, a.Update)
	case DeleteAccount:
		return l.DeleteAccount(state, a.ID)

	case AddCategory:
		next, _ := l.CreateCategory(state, a.Category)
		return next
	case UpdateCategory:
		return l.UpdateCategory(state, a.ID, a.Update)
	case DeleteCategory:
		return l.DeleteCategory(state, a.ID)

	case UpdateSettings:
		return l.UpdateSettings(state, a.Update)
	case AddChatMessage:
		return l.AddChatMessage(state, a.Role, a.Content, a.Image)
	case ClearChat:
		return l.ClearChat(state)

	case AddRecurringRule:
		next, _ := l.CreateRule(state, a.Rule)
		return next
	case UpdateRecurringRule:
		return l.UpdateRule(state, a.ID, a.Update)
	case DeleteRecurringRule:
		return l.DeleteRule(state, a.ID)
	case CheckRecurringRules:
		now := a.Now
		if now.IsZero() {
			now = l.Now()
		}
		return r.recurring.ProcessDueRules(state, now).State

	case BatchImport:
		next, _ := r.importer.Apply(state, a.Rows)
		return next
	case LoadState:
		return a.State.Clone()
	}
	return state
}
