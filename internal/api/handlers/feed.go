package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/olahol/melody"
	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/store"
)

// ChangeFeed pushes a notification to every websocket client after each
// committed state change. Clients refetch /api/state on receipt.
type ChangeFeed struct {
	m   *melody.Melody
	log zerolog.Logger
}

// ChangeEvent is the message broadcast on every change.
type ChangeEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

func NewChangeFeed(log zerolog.Logger) *ChangeFeed {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		log.Debug().Str("remote_addr", s.Request.RemoteAddr).Msg("Feed client connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		log.Debug().Str("remote_addr", s.Request.RemoteAddr).Msg("Feed client disconnected")
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Warn().Err(err).Msg("Feed websocket error")
	})

	return &ChangeFeed{m: m, log: log}
}

// HandleWS handles GET /ws
func (f *ChangeFeed) HandleWS(w http.ResponseWriter, r *http.Request) {
	if err := f.m.HandleRequest(w, r); err != nil {
		f.log.Error().Err(err).Msg("Failed to upgrade websocket")
	}
}

// Publish broadcasts c. It is meant to be registered with Session.Subscribe.
func (f *ChangeFeed) Publish(c store.Change) {
	msg, err := json.Marshal(ChangeEvent{Type: "state_changed", Action: c.Action})
	if err != nil {
		return
	}
	if err := f.m.Broadcast(msg); err != nil && !errors.Is(err, melody.ErrClosed) {
		f.log.Warn().Err(err).Str("action", c.Action).Msg("Failed to broadcast change")
	}
}

// Clients returns the number of connected clients.
func (f *ChangeFeed) Clients() int {
	return f.m.Len()
}

// Close disconnects every client.
func (f *ChangeFeed) Close() error {
	return f.m.Close()
}
