// Package llm defines the provider-neutral conversation types exchanged with
// a chat model that supports tool calls.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned before any network call when the provider
// has no credential.
var ErrNotConfigured = errors.New("llm: provider not configured")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Image is an inline image attached to a user message.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseImage accepts a data URL or bare base64. Bare base64 is assumed to be
// JPEG.
func ParseImage(s string) (*Image, error) {
	mime := "image/jpeg"
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, fmt.Errorf("ParseImage: malformed data URL")
		}
		meta := strings.TrimPrefix(payload[:comma], "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("ParseImage: data URL is not base64")
		}
		if m := strings.TrimSuffix(meta, ";base64"); m != "" {
			mime = m
		}
		payload = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("ParseImage: decode: %w", err)
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

// ToolCall is a model request to run a named tool with JSON arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is one turn of the transcript.
type Message struct {
	Role    Role
	Content string
	Image   *Image
	// ToolCalls is set on assistant turns that requested tools.
	ToolCalls []ToolCall
	// ToolCallID and ToolName identify the call a tool turn answers.
	ToolCallID string
	ToolName   string
}

// Schema is the JSON-schema subset used to describe tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Default     any                `json:"default,omitempty"`
}

// Tool describes one callable function.
type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Request is one round trip to the model.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Reply is either final text or a set of tool calls, optionally with text.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatModel is the black-box AI collaborator.
type ChatModel interface {
	Chat(ctx context.Context, req Request) (Reply, error)
}
