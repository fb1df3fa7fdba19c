package ledger

import (
	"github.com/dvloznov/financeiro/internal/domain"
)

// CreateAccount appends a with a fresh id. The id is returned alongside.
func (l *Ledger) CreateAccount(state domain.State, a domain.Account) (domain.State, string) {
	a.ID = l.newID()
	if a.Currency == "" {
		a.Currency = state.Settings.DefaultCurrency
	}
	if a.Icon == "" {
		a.Icon = a.Type.Icon()
	}
	next := state.Clone()
	next.Accounts = append(next.Accounts, a)
	return next, a.ID
}

// UpdateAccount merges u into the account with the given id. Setting Balance
// is an absolute override and does not touch any transaction.
func (l *Ledger) UpdateAccount(state domain.State, id string, u domain.AccountUpdate) domain.State {
	if _, ok := state.FindAccount(id); !ok {
		return state
	}
	next := state.Clone()
	for i := range next.Accounts {
		a := &next.Accounts[i]
		if a.ID != id {
			continue
		}
		if u.Name != nil {
			a.Name = *u.Name
		}
		if u.Type != nil {
			a.Type = *u.Type
		}
		if u.Balance != nil {
			a.Balance = *u.Balance
		}
		if u.Currency != nil {
			a.Currency = *u.Currency
		}
		if u.Color != nil {
			a.Color = *u.Color
		}
		if u.Icon != nil {
			a.Icon = *u.Icon
		}
	}
	return next
}

// DeleteAccount removes the account. Transactions pointing at it are kept.
func (l *Ledger) DeleteAccount(state domain.State, id string) domain.State {
	if _, ok := state.FindAccount(id); !ok {
		return state
	}
	next := state.Clone()
	kept := next.Accounts[:0]
	for _, a := range next.Accounts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	next.Accounts = kept
	return next
}
