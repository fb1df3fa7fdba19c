// Package assistant runs the chat exchange between the user, the AI model
// and the ledger: it builds the prompt, executes the model's tool calls
// against the state and bounds the number of tool rounds.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/ledger"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/reducer"
)

const (
	DefaultMaxRounds    = 5
	DefaultHistoryTurns = 10
)

// StateStore owns the State the dispatcher reads and mutates. Update must
// apply fn atomically to the latest state.
type StateStore interface {
	Snapshot() domain.State
	Update(ctx context.Context, action string, fn func(domain.State) domain.State) error
}

// ToolResult records one executed tool call.
type ToolResult struct {
	CallID string `json:"callId"`
	Tool   string `json:"tool"`
	Result string `json:"result"`
	Round  int    `json:"round"`
}

// Exchange is the outcome of one user message.
type Exchange struct {
	Reply       string       `json:"reply"`
	Rounds      int          `json:"rounds"`
	ToolResults []ToolResult `json:"toolResults"`
	// Err is the provider error that shaped Reply, if any.
	Err error `json:"-"`
}

// Dispatcher is single-flight per chat session: callers must not start a
// new Send on the same session before the previous one returns.
type Dispatcher struct {
	model        llm.ChatModel
	ledger       *ledger.Ledger
	exec         *Executor
	log          zerolog.Logger
	maxRounds    int
	historyTurns int
	callTimeout  time.Duration
}

type DispatcherOption func(*Dispatcher)

func WithMaxRounds(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxRounds = n
		}
	}
}

func WithHistoryTurns(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.historyTurns = n
		}
	}
}

// WithCallTimeout bounds every individual model call.
func WithCallTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.callTimeout = t }
}

func NewDispatcher(model llm.ChatModel, l *ledger.Ledger, log zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		model:        model,
		ledger:       l,
		exec:         NewExecutor(l),
		log:          log,
		maxRounds:    DefaultMaxRounds,
		historyTurns: DefaultHistoryTurns,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send handles one user message: it records the message, runs up to
// maxRounds tool rounds and records the assistant's reply. Provider
// failures become user-facing text and never escape as errors.
func (d *Dispatcher) Send(ctx context.Context, store StateStore, text, image string) Exchange {
	text = strings.TrimSpace(text)
	if text == "" && image != "" {
		text = MsgImageOnly
	}
	ex := Exchange{ToolResults: []ToolResult{}}
	if text == "" {
		return ex
	}

	snapshot := store.Snapshot()
	messages := d.history(snapshot.ChatHistory)
	d.update(ctx, store, string(reducer.KindAddChatMessage), func(s domain.State) domain.State {
		return d.ledger.AddChatMessage(s, domain.RoleUser, text, image)
	})

	user := llm.Message{
		Role:    llm.RoleUser,
		Content: BuildFinancialContext(snapshot, d.ledger.Now()) + "\n\nMensagem do usuário: " + text,
	}
	if image != "" {
		img, err := llm.ParseImage(image)
		if err != nil {
			d.log.Warn().Err(err).Msg("Discarding unreadable image attachment")
		} else {
			user.Image = img
		}
	}
	messages = append(messages, user)

	reply, err := d.chat(ctx, messages)
	if err != nil {
		ex.Err = err
		ex.Reply = failureText(err)
		d.log.Error().Err(err).Msg("Assistant request failed")
		d.appendReply(ctx, store, ex.Reply)
		return ex
	}

	for len(reply.ToolCalls) > 0 && ex.Rounds < d.maxRounds {
		ex.Rounds++
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply.Text, ToolCalls: reply.ToolCalls})
		for _, call := range reply.ToolCalls {
			result := d.execute(ctx, store, call)
			ex.ToolResults = append(ex.ToolResults, ToolResult{CallID: call.ID, Tool: call.Name, Result: result, Round: ex.Rounds})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}

		reply, err = d.chat(ctx, messages)
		if err != nil {
			ex.Err = err
			d.log.Error().Err(err).Int("round", ex.Rounds).Msg("Assistant follow-up failed")
			reply = llm.Reply{Text: MsgFollowUpFailed}
			break
		}
	}
	if len(reply.ToolCalls) > 0 {
		d.log.Warn().Int("rounds", ex.Rounds).Int("pending_calls", len(reply.ToolCalls)).Msg("Tool round limit reached")
	}

	switch {
	case reply.Text != "":
		ex.Reply = reply.Text
	case len(reply.ToolCalls) > 0:
		ex.Reply = MsgRoundCapReached
	case ex.Rounds > 0:
		ex.Reply = MsgToolsApplied
	default:
		ex.Reply = MsgNoReply
	}
	d.appendReply(ctx, store, ex.Reply)
	return ex
}

func (d *Dispatcher) chat(ctx context.Context, messages []llm.Message) (llm.Reply, error) {
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}
	return d.model.Chat(ctx, llm.Request{
		System:   SystemInstruction,
		Messages: messages,
		Tools:    Tools(),
	})
}

func (d *Dispatcher) execute(ctx context.Context, store StateStore, call llm.ToolCall) string {
	var result string
	err := store.Update(ctx, call.Name, func(s domain.State) domain.State {
		next, r := d.exec.Execute(s, call)
		result = r
		return next
	})
	if err != nil {
		d.log.Error().Err(err).Str("tool", call.Name).Str("tool_call_id", call.ID).Msg("Failed to store tool call result")
	}
	if result == "" {
		result = encode(FailureResult{Success: false, Message: "Não foi possível aplicar a operação."})
	}
	d.log.Info().Str("tool", call.Name).Str("tool_call_id", call.ID).Msg("Tool call executed")
	return result
}

// history maps the trailing chat turns onto model messages. Images from
// earlier turns are not resent.
func (d *Dispatcher) history(chat []domain.ChatMessage) []llm.Message {
	if len(chat) > d.historyTurns {
		chat = chat[len(chat)-d.historyTurns:]
	}
	out := make([]llm.Message, 0, len(chat)+1)
	for _, m := range chat {
		role := llm.RoleUser
		if m.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func (d *Dispatcher) appendReply(ctx context.Context, store StateStore, reply string) {
	d.update(ctx, store, string(reducer.KindAddChatMessage), func(s domain.State) domain.State {
		return d.ledger.AddChatMessage(s, domain.RoleAssistant, reply, "")
	})
}

func (d *Dispatcher) update(ctx context.Context, store StateStore, action string, fn func(domain.State) domain.State) {
	if err := store.Update(ctx, action, fn); err != nil {
		d.log.Error().Err(err).Str("action", action).Msg("Failed to store chat message")
	}
}

func failureText(err error) string {
	if errors.Is(err, llm.ErrNotConfigured) {
		return MsgNotConfigured
	}
	return MsgGenericError
}
