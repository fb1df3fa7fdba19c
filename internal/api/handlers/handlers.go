// Package handlers exposes the financial state over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/api/middleware"
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// Session is the live state the handlers read and mutate.
type Session interface {
	Snapshot() domain.State
	Update(ctx context.Context, action string, fn func(domain.State) domain.State) error
	Dispatch(ctx context.Context, a reducer.Action) error
}

const dateLayout = "2006-01-02"

// requestLog returns the logger the middleware attached to r, which carries
// the request id, or fallback outside the middleware chain.
func requestLog(r *http.Request, fallback zerolog.Logger) zerolog.Logger {
	return logger.FromContextOr(r.Context(), fallback)
}

// parseDay parses a YYYY-MM-DD query value. endOfDay moves it to the last
// instant of that day so range filters include the whole day.
func parseDay(s string, endOfDay bool) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}

// parseMonth parses a YYYY-MM query value into the middle of that month.
func parseMonth(s string) (time.Time, error) {
	m, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, err
	}
	return m.AddDate(0, 0, 14), nil
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
