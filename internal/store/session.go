package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// Change describes one committed state transition.
type Change struct {
	Action string
	State  domain.State
}

// Session owns the live State. Updates are serialized and every committed
// state is saved as a whole before subscribers are notified, in commit order.
type Session struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	state     domain.State
	reducer   *reducer.Reducer
	persister Persister
	log       zerolog.Logger

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func(Change)
}

// NewSession loads the saved state through p.
func NewSession(ctx context.Context, p Persister, r *reducer.Reducer, opts LoadOptions, log zerolog.Logger) (*Session, error) {
	state, err := LoadState(ctx, p, opts, log)
	if err != nil {
		return nil, fmt.Errorf("NewSession: %w", err)
	}
	return &Session{
		state:     state,
		reducer:   r,
		persister: p,
		log:       log,
		subs:      make(map[int]func(Change)),
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) Reducer() *reducer.Reducer {
	return s.reducer
}

// Update commits fn(current) under the session lock and saves it. The save
// is not cancelled with ctx: a state that was committed in memory is always
// written. A failed save keeps the new state and returns the error.
func (s *Session) Update(ctx context.Context, action string, fn func(domain.State) domain.State) error {
	next, err := s.commit(ctx, fn)
	defer s.notifyMu.Unlock()

	if err != nil {
		log := logger.FromContextOr(ctx, s.log)
		log.Error().Err(err).Str("action", action).Msg("Failed to save state")
		err = fmt.Errorf("Session.Update: %s: %w", action, err)
	}
	s.notify(Change{Action: action, State: next})
	return err
}

// commit applies fn and saves the result. It returns holding notifyMu,
// taken before the session lock is released, so changes reach subscribers
// in the order they were committed. If fn panics neither lock is held.
func (s *Session) commit(ctx context.Context, fn func(domain.State) domain.State) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.state)
	s.state = next
	err := SaveState(context.WithoutCancel(ctx), s.persister, next)
	s.notifyMu.Lock()
	return next, err
}

// Dispatch applies a reducer action.
func (s *Session) Dispatch(ctx context.Context, a reducer.Action) error {
	return s.Update(ctx, string(a.Kind()), func(st domain.State) domain.State {
		return s.reducer.Apply(st, a)
	})
}

// Subscribe registers fn for every committed change and returns a function
// that removes it. fn runs on the updating goroutine and must not call back
// into Update.
func (s *Session) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) notify(c Change) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn(c)
	}
}

// Close releases the persister.
func (s *Session) Close() error {
	return s.persister.Close()
}
