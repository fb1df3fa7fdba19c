package ledger

import (
	"github.com/dvloznov/financeiro/internal/domain"
)

// CreateTransaction stamps the draft with a fresh id and timestamps, prepends
// it to the transaction list and applies its signed delta to draft.AccountID.
func (l *Ledger) CreateTransaction(state domain.State, draft domain.TransactionDraft) domain.State {
	next, _ := l.createTransaction(state, draft)
	return next
}

// CreateTransactionID behaves like CreateTransaction and also returns the id
// assigned to the new transaction.
func (l *Ledger) CreateTransactionID(state domain.State, draft domain.TransactionDraft) (domain.State, string) {
	return l.createTransaction(state, draft)
}

func (l *Ledger) createTransaction(state domain.State, draft domain.TransactionDraft) (domain.State, string) {
	now := l.now()
	currency := draft.Currency
	if currency == "" {
		currency = state.Settings.DefaultCurrency
	}
	tx := domain.Transaction{
		ID:              l.newID(),
		AccountID:       draft.AccountID,
		Type:            draft.Type,
		Amount:          draft.Amount,
		Currency:        currency,
		Description:     draft.Description,
		CategoryID:      draft.CategoryID,
		Date:            draft.Date,
		Notes:           draft.Notes,
		IsRecurring:     draft.IsRecurring,
		RecurringRuleID: draft.RecurringRuleID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	next := state.Clone()
	next.Transactions = append([]domain.Transaction{tx}, next.Transactions...)
	adjustBalance(next.Accounts, tx.AccountID, SignedDelta(tx.Type, tx.Amount))
	return next, tx.ID
}

// UpdateTransaction merges the non-nil fields of u into the transaction with
// the given id. When amount, type or account is part of the update, the old
// delta is reverted from the old account before the new delta is applied to
// the new account. Unknown ids return state unchanged.
func (l *Ledger) UpdateTransaction(state domain.State, id string, u domain.TransactionUpdate) domain.State {
	old, ok := state.FindTransaction(id)
	if !ok {
		return state
	}

	updated := old
	if u.AccountID != nil {
		updated.AccountID = *u.AccountID
	}
	if u.Type != nil {
		updated.Type = *u.Type
	}
	if u.Amount != nil {
		updated.Amount = *u.Amount
	}
	if u.Currency != nil {
		updated.Currency = *u.Currency
	}
	if u.Description != nil {
		updated.Description = *u.Description
	}
	if u.CategoryID != nil {
		updated.CategoryID = *u.CategoryID
	}
	if u.Date != nil {
		updated.Date = *u.Date
	}
	if u.Notes != nil {
		updated.Notes = *u.Notes
	}
	updated.UpdatedAt = l.now()

	next := state.Clone()
	if u.AffectsBalance() {
		adjustBalance(next.Accounts, old.AccountID, SignedDelta(old.Type, old.Amount).Neg())
		adjustBalance(next.Accounts, updated.AccountID, SignedDelta(updated.Type, updated.Amount))
	}
	for i := range next.Transactions {
		if next.Transactions[i].ID == id {
			next.Transactions[i] = updated
			break
		}
	}
	return next
}

// DeleteTransaction removes the transaction and reverts its delta.
func (l *Ledger) DeleteTransaction(state domain.State, id string) domain.State {
	tx, ok := state.FindTransaction(id)
	if !ok {
		return state
	}

	next := state.Clone()
	kept := next.Transactions[:0]
	for _, t := range next.Transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	next.Transactions = kept
	adjustBalance(next.Accounts, tx.AccountID, SignedDelta(tx.Type, tx.Amount).Neg())
	return next
}
