// Package ledger applies domain operations to a State while keeping every
// account balance equal to its seed balance plus the signed amounts of the
// transactions that reference it.
//
// All operations are total: unknown ids degrade to a no-op on the affected
// collection and nothing cascades. The input State is never modified.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/financeiro/internal/domain"
)

// Ledger carries the clock and id source used to stamp new entities.
type Ledger struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New returns a Ledger stamping entities with uuid v4 ids and wall-clock time.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// NewID returns a fresh id from the ledger's generator.
func (l *Ledger) NewID() string {
	return l.newID()
}

// SignedDelta is the effect a transaction of the given type and amount has on
// its account: +amount for income, -amount for expense. Transfers carry no
// balance effect.
func SignedDelta(t domain.TransactionType, amount float64) decimal.Decimal {
	a := decimal.NewFromFloat(amount)
	switch t {
	case domain.TransactionTypeIncome:
		return a
	case domain.TransactionTypeExpense:
		return a.Neg()
	default:
		return decimal.Zero
	}
}

// adjustBalance adds delta to the account with the given id in place.
// A missing account is ignored.
func adjustBalance(accounts []domain.Account, id string, delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	for i := range accounts {
		if accounts[i].ID == id {
			accounts[i].Balance = decimal.NewFromFloat(accounts[i].Balance).Add(delta).InexactFloat64()
			return
		}
	}
}
