package domain

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringRule materializes a transaction every time NextDate is reached.
// Rules are never deleted automatically.
type RecurringRule struct {
	ID            string          `json:"id"`
	Frequency     Frequency       `json:"frequency"`
	StartDate     time.Time       `json:"startDate"`
	NextDate      time.Time       `json:"nextDate"`
	LastGenerated *time.Time      `json:"lastGenerated,omitempty"`
	Amount        float64         `json:"amount"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId"`
	AccountID     string          `json:"accountId"`
	Type          TransactionType `json:"type"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type RecurringRuleUpdate struct {
	Frequency   *Frequency       `json:"frequency,omitempty"`
	NextDate    *time.Time       `json:"nextDate,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	AccountID   *string          `json:"accountId,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

// Next advances t by one calendar step of f. Months and years overflow the
// way time.AddDate does (Jan 31 + 1 month is Mar 2 or 3).
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// TruncateDay drops the time of day, keeping t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
