package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/api/middleware"
	"github.com/dvloznov/financeiro/internal/assistant"
	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// Assistant answers one chat message, possibly mutating the state through
// tool calls.
type Assistant interface {
	Send(ctx context.Context, store assistant.StateStore, text, image string) assistant.Exchange
}

// Classifier proposes a category for a description.
type Classifier interface {
	Classify(ctx context.Context, description string, categories []string) (assistant.Suggestion, bool)
}

// ChatHandler handles the assistant endpoints.
type ChatHandler struct {
	session    Session
	assistant  Assistant
	classifier Classifier
	log        zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(session Session, a Assistant, c Classifier, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{session: session, assistant: a, classifier: c, log: log}
}

// SendMessage handles POST /api/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Image   string `json:"image,omitempty"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" && req.Image == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message or image is required")
		return
	}

	ex := h.assistant.Send(r.Context(), h.session, req.Message, req.Image)
	if ex.Err != nil {
		log := requestLog(r, h.log)
		log.Warn().Err(ex.Err).Msg("Assistant replied with a failure message")
	}
	middleware.WriteJSON(w, http.StatusOK, ex)
}

// History handles GET /api/chat
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	history := h.session.Snapshot().ChatHistory
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": history,
		"count":    len(history),
	})
}

// Clear handles DELETE /api/chat
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Dispatch(r.Context(), reducer.ClearChat{}); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to clear chat")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save changes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Classify handles POST /api/classify
// The response carries a null suggestion when none could be made.
func (h *ChatHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string                 `json:"description"`
		Type        domain.TransactionType `json:"type,omitempty"`
	}
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = domain.TransactionTypeExpense
	}

	var names []string
	for _, c := range h.session.Snapshot().CategoriesOfType(domain.CategoryTypeFor(req.Type)) {
		names = append(names, c.Name)
	}

	var out *assistant.Suggestion
	if s, ok := h.classifier.Classify(r.Context(), req.Description, names); ok {
		out = &s
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"suggestion": out})
}
