// Package gemini adapts Google's Gemini models to llm.ChatModel.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/financeiro/internal/llm"
)

// DefaultModelName is used when Config.Model is empty.
const DefaultModelName = "gemini-2.5-flash"

type Config struct {
	APIKey     string
	Model      string
	APIVersion string
}

// Model calls GenerateContent with function declarations for every tool.
type Model struct {
	client *genai.Client
	model  string
}

var _ llm.ChatModel = (*Model)(nil)

// New creates a Gemini chat model. An empty API key yields a model whose
// Chat always returns llm.ErrNotConfigured.
func New(ctx context.Context, cfg Config) (*Model, error) {
	m := &Model{model: cfg.Model}
	if m.model == "" {
		m.model = DefaultModelName
	}
	if cfg.APIKey == "" {
		return m, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: cfg.APIVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini.New: create genai client: %w", err)
	}
	m.client = client
	return m, nil
}

// Chat sends one request and converts the first candidate back.
func (m *Model) Chat(ctx context.Context, req llm.Request) (llm.Reply, error) {
	if m.client == nil {
		return llm.Reply{}, llm.ErrNotConfigured
	}

	contents, err := toContents(req.Messages)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: build contents: %w", err)
	}
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		config.Tools = toTools(req.Tools)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("Chat: generate content: %w", err)
	}
	return fromResponse(resp)
}

func toContents(messages []llm.Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleUser, llm.RoleSystem:
			parts := []*genai.Part{{Text: msg.Content}}
			if msg.Image != nil {
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: msg.Image.MIMEType,
					Data:     msg.Image.Data,
				}})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})

		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				args := map[string]any{}
				if len(call.Arguments) > 0 {
					if err := json.Unmarshal(call.Arguments, &args); err != nil {
						return nil, fmt.Errorf("toContents: arguments of %s: %w", call.Name, err)
					}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: args,
				}})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case llm.RoleTool:
			response := map[string]any{}
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]any{"output": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: response,
				}}},
			})
		}
	}
	return contents, nil
}

func toTools(tools []llm.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

func fromResponse(resp *genai.GenerateContentResponse) (llm.Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.Reply{}, fmt.Errorf("fromResponse: empty response from model")
	}
	reply := llm.Reply{Text: strings.TrimSpace(resp.Text())}
	for i, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return llm.Reply{}, fmt.Errorf("fromResponse: marshal args of %s: %w", fc.Name, err)
		}
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		reply.ToolCalls = append(reply.ToolCalls, llm.ToolCall{ID: id, Name: fc.Name, Arguments: args})
	}
	return reply, nil
}
