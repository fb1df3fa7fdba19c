// Package openrouter talks to OpenAI-compatible chat-completions endpoints
// such as OpenRouter.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/financeiro/internal/llm"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModelName = "google/gemini-2.0-flash-001"
	placeholderKey   = "your_openrouter_key_here"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Referer and Title are sent as HTTP-Referer and X-Title.
	Referer string
	Title   string
	Timeout time.Duration
}

// Client implements llm.ChatModel over chat-completions.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ llm.ChatModel = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModelName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Title == "" {
		cfg.Title = "Financeiro AI"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a usable API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.APIKey != placeholderKey
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type message struct {
	Role       string     `json:"role"`
	Content    any        `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type functionDef struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *llm.Schema `json:"parameters"`
}

type tool struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type chatRequest struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Tools      []tool    `json:"tools,omitempty"`
	ToolChoice string    `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage `json:"content"`
			ToolCalls []toolCall      `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Reply, error) {
	if !c.Configured() {
		return llm.Reply{}, llm.ErrNotConfigured
	}

	body, err := json.Marshal(buildRequest(c.cfg.Model, req))
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", c.cfg.Title)
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := "OpenRouter API Error"
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return llm.Reply{}, fmt.Errorf("Chat: status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return llm.Reply{}, fmt.Errorf("Chat: no choices in response")
	}

	choice := parsed.Choices[0].Message
	reply := llm.Reply{Text: extractText(choice.Content)}
	for _, tc := range choice.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if strings.TrimSpace(tc.Function.Arguments) == "" {
			args = json.RawMessage("{}")
		}
		reply.ToolCalls = append(reply.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return reply, nil
}

func buildRequest(model string, req llm.Request) chatRequest {
	out := chatRequest{Model: model}
	if req.System != "" {
		out.Messages = append(out.Messages, message{Role: string(llm.RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		msg := message{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		if m.Image != nil {
			msg.Content = []contentPart{
				{Type: "text", Text: m.Content},
				{Type: "image_url", ImageURL: &imageURL{URL: m.Image.DataURL()}},
			}
		}
		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			if m.Content == "" {
				msg.Content = nil
			}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: functionCall{Name: tc.Name, Arguments: string(tc.Arguments)},
				})
			}
		}
		out.Messages = append(out.Messages, msg)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, tool{
			Type:     "function",
			Function: functionDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if len(out.Tools) > 0 {
		out.ToolChoice = "auto"
	}
	return out
}

// extractText accepts content as a string or as an array of typed parts.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var texts []string
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}
