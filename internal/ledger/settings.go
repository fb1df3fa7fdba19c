package ledger

import (
	"github.com/dvloznov/financeiro/internal/domain"
)

func (l *Ledger) UpdateSettings(state domain.State, u domain.SettingsUpdate) domain.State {
	next := state.Clone()
	if u.DefaultCurrency != nil {
		next.Settings.DefaultCurrency = *u.DefaultCurrency
	}
	if u.Theme != nil {
		next.Settings.Theme = *u.Theme
	}
	if u.Language != nil {
		next.Settings.Language = *u.Language
	}
	return next
}

// AddChatMessage appends a message to the chat log with a fresh id and
// timestamp.
func (l *Ledger) AddChatMessage(state domain.State, role domain.Role, content, image string) domain.State {
	next := state.Clone()
	next.ChatHistory = append(next.ChatHistory, domain.ChatMessage{
		ID:        l.newID(),
		Role:      role,
		Content:   content,
		Timestamp: l.now(),
		Image:     image,
	})
	return next
}

func (l *Ledger) ClearChat(state domain.State) domain.State {
	next := state.Clone()
	next.ChatHistory = []domain.ChatMessage{}
	return next
}
