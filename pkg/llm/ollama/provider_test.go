package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func newTestProvider(handler http.HandlerFunc) (*OllamaProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	p := NewOllamaProvider(srv.URL, "llama3")
	p.Client = srv.Client()
	return p, srv
}

func TestChatReturnsContent(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "hello!"},
			Done:    true,
		})
	})
	defer srv.Close()

	resp, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.NoError(t, err)
	assert.Equal(t, "hello!", resp)
}

func TestChatWithToolsSynthesizesCallIDs(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Len(t, req.Tools, 1)
		assert.Equal(t, "function", req.Tools[0].Type)
		assert.Equal(t, "web_search", req.Tools[0].Function.Name)

		body := `{
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [
					{"function": {"name": "web_search", "arguments": {"query": "golang"}}},
					{"function": {"name": "web_search", "arguments": {"query": "fiber"}}}
				]
			},
			"done": true
		}`
		w.Write([]byte(body))
	})
	defer srv.Close()

	tools := []llm.Tool{{Name: "web_search", Description: "search", Parameters: map[string]interface{}{}}}
	msg, err := p.ChatWithTools(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}}, tools)
	assert.NoError(t, err)
	assert.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, "web_search", msg.ToolCalls[0].Name)
	assert.Equal(t, "golang", msg.ToolCalls[0].Arguments["query"])

	// IDs are synthesized locally and must be unique.
	assert.NotEmpty(t, msg.ToolCalls[0].ID)
	assert.NotEmpty(t, msg.ToolCalls[1].ID)
	assert.NotEqual(t, msg.ToolCalls[0].ID, msg.ToolCalls[1].ID)
}

func TestStructuredChatRequestsJSONFormat(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "json", req.Format)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: `{"binary_score": "yes"}`},
			Done:    true,
		})
	})
	defer srv.Close()

	var out struct {
		BinaryScore string `json:"binary_score"`
	}
	err := p.StructuredChat(context.Background(), "grade this", &out)
	assert.NoError(t, err)
	assert.Equal(t, "yes", out.BinaryScore)
}

func TestStructuredChatMalformedOutputIsValidationError(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "I think the answer is yes"},
			Done:    true,
		})
	})
	defer srv.Close()

	var out struct{}
	err := p.StructuredChat(context.Background(), "grade this", &out)
	assert.Error(t, err)

	var validationErr *errs.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Raw, "I think")
}

func TestChatNonOKStatusIsGatewayError(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.Error(t, err)

	var gatewayErr *errs.GatewayError
	assert.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "llm.chat", gatewayErr.Op)
}

func TestSendMapsToolTurns(t *testing.T) {
	p, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)

		assert.Len(t, req.Messages, 3)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.Len(t, req.Messages[1].ToolCalls, 1)
		assert.Equal(t, "tool", req.Messages[2].Role)
		assert.Equal(t, "web_search", req.Messages[2].ToolName)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "done"},
			Done:    true,
		})
	})
	defer srv.Close()

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "q"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "web_search", Arguments: map[string]interface{}{"query": "q"}}}},
		{Role: llm.RoleTool, Content: "results", ToolCallID: "c1", ToolName: "web_search"},
	}
	resp, err := p.Chat(context.Background(), history)
	assert.NoError(t, err)
	assert.Equal(t, "done", resp)
}
