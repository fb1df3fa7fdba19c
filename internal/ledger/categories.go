package ledger

import (
	"github.com/dvloznov/financeiro/internal/domain"
)

// CreateCategory appends a user-owned category with a fresh id.
func (l *Ledger) CreateCategory(state domain.State, c domain.Category) (domain.State, string) {
	c.ID = l.newID()
	c.IsDefault = false
	next := state.Clone()
	next.Categories = append(next.Categories, c)
	return next, c.ID
}

func (l *Ledger) UpdateCategory(state domain.State, id string, u domain.CategoryUpdate) domain.State {
	if _, ok := state.FindCategory(id); !ok {
		return state
	}
	next := state.Clone()
	for i := range next.Categories {
		c := &next.Categories[i]
		if c.ID != id {
			continue
		}
		if u.Name != nil {
			c.Name = *u.Name
		}
		if u.Icon != nil {
			c.Icon = *u.Icon
		}
		if u.Color != nil {
			c.Color = *u.Color
		}
		if u.Type != nil {
			c.Type = *u.Type
		}
	}
	return next
}

// DeleteCategory removes a non-default category. Default categories are kept
// and transactions keep their category id.
func (l *Ledger) DeleteCategory(state domain.State, id string) domain.State {
	c, ok := state.FindCategory(id)
	if !ok || c.IsDefault {
		return state
	}
	next := state.Clone()
	kept := next.Categories[:0]
	for _, c := range next.Categories {
		if c.ID != id || c.IsDefault {
			kept = append(kept, c)
		}
	}
	next.Categories = kept
	return next
}
