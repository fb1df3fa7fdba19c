package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/recurring"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// CheckRecurring fires the due recurring rules and returns how many fired.
// Nothing is saved when no rule is due.
func (a *App) CheckRecurring(ctx context.Context) (int, error) {
	now := a.Ledger.Now()
	if !a.Recurring.ProcessDueRules(a.Session.Snapshot(), now).Changed() {
		return 0, nil
	}

	var res recurring.Result
	err := a.Session.Update(ctx, string(reducer.KindCheckRecurringRules), func(s domain.State) domain.State {
		res = a.Recurring.ProcessDueRules(s, now)
		return res.State
	})
	if err != nil {
		return len(res.Fired), fmt.Errorf("CheckRecurring: %w", err)
	}
	if res.Changed() {
		a.Log.Info().Strs("rules", res.Fired).Msg("Recurring transactions generated")
	}
	return len(res.Fired), nil
}

// RunScheduler checks recurring rules immediately and then every interval
// until ctx is cancelled. Overdue rules catch up one period per tick.
func (a *App) RunScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.CheckRecurring(ctx); err != nil {
			a.Log.Error().Err(err).Msg("Recurring check failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
