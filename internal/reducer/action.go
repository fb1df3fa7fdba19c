// Package reducer routes tagged actions to the ledger, the recurring
// processor and the import reconciler.
package reducer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
)

// ErrUnknownAction is returned by DecodeAction for an unrecognized type tag.
var ErrUnknownAction = errors.New("reducer: unknown action")

type Kind string

const (
	KindAddTransaction      Kind = "ADD_TRANSACTION"
	KindUpdateTransaction   Kind = "UPDATE_TRANSACTION"
	KindDeleteTransaction   Kind = "DELETE_TRANSACTION"
	KindAddAccount          Kind = "ADD_ACCOUNT"
	KindUpdateAccount       Kind = "UPDATE_ACCOUNT"
	KindDeleteAccount       Kind = "DELETE_ACCOUNT"
	KindAddCategory         Kind = "ADD_CATEGORY"
	KindUpdateCategory      Kind = "UPDATE_CATEGORY"
	KindDeleteCategory      Kind = "DELETE_CATEGORY"
	KindUpdateSettings      Kind = "UPDATE_SETTINGS"
	KindAddChatMessage      Kind = "ADD_CHAT_MESSAGE"
	KindClearChat           Kind = "CLEAR_CHAT"
	KindAddRecurringRule    Kind = "ADD_RECURRING_RULE"
	KindUpdateRecurringRule Kind = "UPDATE_RECURRING_RULE"
	KindDeleteRecurringRule Kind = "DELETE_RECURRING_RULE"
	KindCheckRecurringRules Kind = "CHECK_RECURRING_RULES"
	KindBatchImport         Kind = "BATCH_IMPORT_TRANSACTIONS"
	KindLoadState           Kind = "LOAD_STATE"
)

// Action is one state transition request.
type Action interface {
	Kind() Kind
}

// AddTransaction records Draft. A non-empty Frequency also registers a
// recurring rule for it.
type AddTransaction struct {
	Draft     domain.TransactionDraft
	Frequency domain.Frequency
}

type UpdateTransaction struct {
	ID     string
	Update domain.TransactionUpdate
}

type DeleteTransaction struct{ ID string }

type AddAccount struct{ Account domain.Account }

type UpdateAccount struct {
	ID     string
	Update domain.AccountUpdate
}

type DeleteAccount struct{ ID string }

type AddCategory struct{ Category domain.Category }

type UpdateCategory struct {
	ID     string
	Update domain.CategoryUpdate
}

type DeleteCategory struct{ ID string }

type UpdateSettings struct{ Update domain.SettingsUpdate }

type AddChatMessage struct {
	Role    domain.Role
	Content string
	Image   string
}

type ClearChat struct{}

type AddRecurringRule struct{ Rule domain.RecurringRule }

type UpdateRecurringRule struct {
	ID     string
	Update domain.RecurringRuleUpdate
}

type DeleteRecurringRule struct{ ID string }

// CheckRecurringRules fires due rules. A zero Now uses the ledger clock.
type CheckRecurringRules struct{ Now time.Time }

type BatchImport struct{ Rows []importer.Row }

// LoadState replaces the whole state.
type LoadState struct{ State domain.State }

func (AddTransaction) Kind() Kind      { return KindAddTransaction }
func (UpdateTransaction) Kind() Kind   { return KindUpdateTransaction }
func (DeleteTransaction) Kind() Kind   { return KindDeleteTransaction }
func (AddAccount) Kind() Kind          { return KindAddAccount }
func (UpdateAccount) Kind() Kind       { return KindUpdateAccount }
func (DeleteAccount) Kind() Kind       { return KindDeleteAccount }
func (AddCategory) Kind() Kind         { return KindAddCategory }
func (UpdateCategory) Kind() Kind      { return KindUpdateCategory }
func (DeleteCategory) Kind() Kind      { return KindDeleteCategory }
func (UpdateSettings) Kind() Kind      { return KindUpdateSettings }
func (AddChatMessage) Kind() Kind      { return KindAddChatMessage }
func (ClearChat) Kind() Kind           { return KindClearChat }
func (AddRecurringRule) Kind() Kind    { return KindAddRecurringRule }
func (UpdateRecurringRule) Kind() Kind { return KindUpdateRecurringRule }
func (DeleteRecurringRule) Kind() Kind { return KindDeleteRecurringRule }
func (CheckRecurringRules) Kind() Kind { return KindCheckRecurringRules }
func (BatchImport) Kind() Kind         { return KindBatchImport }
func (LoadState) Kind() Kind           { return KindLoadState }

type envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type idUpdate[U any] struct {
	ID      string `json:"id"`
	Updates U      `json:"updates"`
}

type addTransactionPayload struct {
	domain.TransactionDraft
	Frequency domain.Frequency `json:"frequency,omitempty"`
}

type chatPayload struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
	Image   string      `json:"image,omitempty"`
}

type checkPayload struct {
	Now time.Time `json:"now"`
}

// DecodeAction parses the wire form {"type": KIND, "payload": ...}. Delete
// actions carry the bare id string as payload, updates carry
// {"id", "updates"}.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("DecodeAction: %w", err)
	}
	a, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("DecodeAction: %s: %w", env.Type, err)
	}
	return a, nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Action, error) {
	switch kind {
	case KindAddTransaction:
		var p addTransactionPayload
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return AddTransaction{Draft: p.TransactionDraft, Frequency: p.Frequency}, nil
	case KindUpdateTransaction:
		var p idUpdate[domain.TransactionUpdate]
		err := unmarshal(raw, &p)
		return UpdateTransaction{ID: p.ID, Update: p.Updates}, err
	case KindDeleteTransaction:
		id, err := unmarshalID(raw)
		return DeleteTransaction{ID: id}, err

	case KindAddAccount:
		var a domain.Account
		err := unmarshal(raw, &a)
		return AddAccount{Account: a}, err
	case KindUpdateAccount:
		var p idUpdate[domain.AccountUpdate]
		err := unmarshal(raw, &p)
		return UpdateAccount{ID: p.ID, Update: p.Updates}, err
	case KindDeleteAccount:
		id, err := unmarshalID(raw)
		return DeleteAccount{ID: id}, err

	case KindAddCategory:
		var c domain.Category
		err := unmarshal(raw, &c)
		return AddCategory{Category: c}, err
	case KindUpdateCategory:
		var p idUpdate[domain.CategoryUpdate]
		err := unmarshal(raw, &p)
		return UpdateCategory{ID: p.ID, Update: p.Updates}, err
	case KindDeleteCategory:
		id, err := unmarshalID(raw)
		return DeleteCategory{ID: id}, err

	case KindUpdateSettings:
		var u domain.SettingsUpdate
		err := unmarshal(raw, &u)
		return UpdateSettings{Update: u}, err
	case KindAddChatMessage:
		var p chatPayload
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Role != domain.RoleUser && p.Role != domain.RoleAssistant {
			return nil, fmt.Errorf("invalid role %q", p.Role)
		}
		return AddChatMessage{Role: p.Role, Content: p.Content, Image: p.Image}, nil
	case KindClearChat:
		return ClearChat{}, nil

	case KindAddRecurringRule:
		var r domain.RecurringRule
		err := unmarshal(raw, &r)
		return AddRecurringRule{Rule: r}, err
	case KindUpdateRecurringRule:
		var p idUpdate[domain.RecurringRuleUpdate]
		err := unmarshal(raw, &p)
		return UpdateRecurringRule{ID: p.ID, Update: p.Updates}, err
	case KindDeleteRecurringRule:
		id, err := unmarshalID(raw)
		return DeleteRecurringRule{ID: id}, err
	case KindCheckRecurringRules:
		var p checkPayload
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
		}
		return CheckRecurringRules{Now: p.Now}, nil

	case KindBatchImport:
		var rows []importer.Row
		err := unmarshal(raw, &rows)
		return BatchImport{Rows: rows}, err
	case KindLoadState:
		var s domain.State
		err := unmarshal(raw, &s)
		return LoadState{State: s}, err
	}
	return nil, ErrUnknownAction
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}

func unmarshalID(raw json.RawMessage) (string, error) {
	var id string
	if err := unmarshal(raw, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("empty id")
	}
	return id, nil
}
