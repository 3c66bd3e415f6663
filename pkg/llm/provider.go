package llm

import (
	"context"
)

// Message represents a chat turn in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system", "tool"
	Content string

	// ToolCalls is set on assistant messages when the model decided to
	// invoke a tool instead of (or before) answering.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool messages and must reference
	// a call emitted by the immediately preceding assistant message.
	ToolCallID string
	ToolName   string
}

// Role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-emitted request to invoke a tool by name.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Tool describes a callable capability offered to the model.
// Parameters is a JSON-schema object in the wire format tool-capable
// providers expect.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response text
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatWithTools sends a chat history plus tool descriptors. The returned
	// message either answers directly (Content set, no ToolCalls) or carries
	// the model's tool invocation requests.
	ChatWithTools(ctx context.Context, history []Message, tools []Tool, options ...Option) (*Message, error)

	// StructuredChat sends a single prompt and unmarshals the model's JSON
	// output into out. Malformed output surfaces as *errs.ValidationError;
	// no default value is ever assumed.
	StructuredChat(ctx context.Context, prompt string, out interface{}, options ...Option) error
}
