package domain

import "time"

const (
	DefaultCurrency = "BRL"
	// StorageKey is the key the whole State blob is persisted under.
	StorageKey = "financeiro_ai_data"
)

type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget is carried in the persisted state; no operation edits it yet.
type Budget struct {
	ID         string       `json:"id"`
	CategoryID string       `json:"categoryId"`
	Amount     float64      `json:"amount"`
	Currency   string       `json:"currency"`
	Period     BudgetPeriod `json:"period"`
	StartDate  time.Time    `json:"startDate"`
	Spent      float64      `json:"spent"`
}

type Settings struct {
	DefaultCurrency string `json:"defaultCurrency"`
	Theme           string `json:"theme"`
	Language        string `json:"language"`
}

type SettingsUpdate struct {
	DefaultCurrency *string `json:"defaultCurrency,omitempty"`
	Theme           *string `json:"theme,omitempty"`
	Language        *string `json:"language,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the append-only chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"`
}

// State is the single aggregate root. Ledger operations never mutate a State
// in place; they return a new value.
type State struct {
	Transactions   []Transaction   `json:"transactions"`
	Accounts       []Account       `json:"accounts"`
	Categories     []Category      `json:"categories"`
	Budgets        []Budget        `json:"budgets"`
	RecurringRules []RecurringRule `json:"recurringRules"`
	Settings       Settings        `json:"settings"`
	ChatHistory    []ChatMessage   `json:"chatHistory"`
}

// FindAccount returns the account with the given id.
func (s State) FindAccount(id string) (Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

func (s State) FindCategory(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func (s State) FindTransaction(id string) (Transaction, bool) {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

func (s State) FindRule(id string) (RecurringRule, bool) {
	for _, r := range s.RecurringRules {
		if r.ID == id {
			return r, true
		}
	}
	return RecurringRule{}, false
}

// CategoriesOfType filters categories by type, keeping their order.
func (s State) CategoriesOfType(t CategoryType) []Category {
	out := make([]Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of every collection so callers can modify
// slices without touching s.
func (s State) Clone() State {
	out := s
	out.Transactions = cloneSlice(s.Transactions)
	out.Accounts = cloneSlice(s.Accounts)
	out.Categories = cloneSlice(s.Categories)
	out.Budgets = cloneSlice(s.Budgets)
	out.RecurringRules = make([]RecurringRule, len(s.RecurringRules))
	for i, r := range s.RecurringRules {
		if r.LastGenerated != nil {
			t := *r.LastGenerated
			r.LastGenerated = &t
		}
		out.RecurringRules[i] = r
	}
	out.ChatHistory = cloneSlice(s.ChatHistory)
	return out
}

// cloneSlice always returns a non-nil slice so empty collections encode as [].
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
