package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

// fakeLLM replays scripted responses per method, in call order.
type fakeLLM struct {
	chatResponses []string
	chatCalls     int

	toolResponses []llm.Message
	toolCalls     int

	structuredResponses []string
	structuredCalls     int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.chatCalls >= len(f.chatResponses) {
		return "", fmt.Errorf("unexpected Chat call %d", f.chatCalls)
	}
	resp := f.chatResponses[f.chatCalls]
	f.chatCalls++
	return resp, nil
}

func (f *fakeLLM) ChatWithTools(ctx context.Context, history []llm.Message, tools []llm.Tool, options ...llm.Option) (*llm.Message, error) {
	if f.toolCalls >= len(f.toolResponses) {
		return nil, fmt.Errorf("unexpected ChatWithTools call %d", f.toolCalls)
	}
	resp := f.toolResponses[f.toolCalls]
	f.toolCalls++
	return &resp, nil
}

func (f *fakeLLM) StructuredChat(ctx context.Context, prompt string, out interface{}, options ...llm.Option) error {
	if f.structuredCalls >= len(f.structuredResponses) {
		return fmt.Errorf("unexpected StructuredChat call %d", f.structuredCalls)
	}
	raw := f.structuredResponses[f.structuredCalls]
	f.structuredCalls++
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &errs.ValidationError{Field: "response", Raw: raw, Err: err}
	}
	return nil
}

type fakeGateway struct {
	retrieveContent string
	retrieveErr     error
	retrieveCalls   int

	webContent string
	webErr     error
	webCalls   int
	webQueries []string
}

func (f *fakeGateway) RetrieveDocuments(ctx context.Context, query string) (string, []store.Document, error) {
	f.retrieveCalls++
	if f.retrieveErr != nil {
		return "", nil, f.retrieveErr
	}
	return f.retrieveContent, nil, nil
}

func (f *fakeGateway) WebSearch(ctx context.Context, query string) (string, error) {
	f.webCalls++
	f.webQueries = append(f.webQueries, query)
	if f.webErr != nil {
		return "", f.webErr
	}
	return f.webContent, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func retrieveCall(query string) llm.Message {
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call-1", Name: ToolRetrieve, Arguments: map[string]interface{}{"query": query}},
		},
	}
}

func TestWorkflowDirectAnswer(t *testing.T) {
	provider := &fakeLLM{
		toolResponses: []llm.Message{
			{Role: llm.RoleAssistant, Content: "Hello there"},
		},
	}
	gw := &fakeGateway{}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	res, err := w.Invoke(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "Hello there", res.Answer)
	assert.False(t, res.Unverified)
	assert.Equal(t, 0, gw.retrieveCalls)
	assert.Equal(t, 0, gw.webCalls)
	assert.Equal(t, 0, provider.structuredCalls)
}

func TestWorkflowRetrieveRelevantDocs(t *testing.T) {
	provider := &fakeLLM{
		toolResponses:       []llm.Message{retrieveCall("what is pgvector?")},
		structuredResponses: []string{`{"binary_score": "yes"}`, `{"binary_score": "yes"}`},
		chatResponses:       []string{"pgvector is a Postgres extension."},
	}
	gw := &fakeGateway{retrieveContent: "pgvector adds vector similarity search to Postgres."}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	res, err := w.Invoke(context.Background(), "what is pgvector?")
	assert.NoError(t, err)
	assert.Equal(t, "pgvector is a Postgres extension.", res.Answer)
	assert.False(t, res.Unverified)
	assert.Equal(t, 1, gw.retrieveCalls)
	assert.Equal(t, 0, gw.webCalls)
	// One grade, one grounding check.
	assert.Equal(t, 2, provider.structuredCalls)
}

func TestWorkflowGradingFallback(t *testing.T) {
	// Irrelevant docs trigger exactly one web search; the grader runs once
	// and the web answer skips the grounding check.
	provider := &fakeLLM{
		toolResponses:       []llm.Message{retrieveCall("latest go release")},
		structuredResponses: []string{`{"binary_score": "no"}`},
		chatResponses:       []string{"Go 1.24 is the latest release."},
	}
	gw := &fakeGateway{
		retrieveContent: "unrelated cooking recipes",
		webContent:      "Go 1.24 released in February.",
	}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	res, err := w.Invoke(context.Background(), "latest go release")
	assert.NoError(t, err)
	assert.Equal(t, "Go 1.24 is the latest release.", res.Answer)
	assert.False(t, res.Unverified)
	assert.Equal(t, 1, gw.retrieveCalls)
	assert.Equal(t, 1, gw.webCalls)
	assert.Equal(t, []string{"latest go release"}, gw.webQueries)
	assert.Equal(t, 1, provider.structuredCalls)
}

func TestWorkflowWebSearchBypass(t *testing.T) {
	// A web_search tool choice goes straight to generation, no grader and
	// no grounding check.
	provider := &fakeLLM{
		toolResponses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: ToolWebSearch, Arguments: map[string]interface{}{"query": "weather today"}},
				},
			},
		},
		chatResponses: []string{"Sunny, 22 degrees."},
	}
	gw := &fakeGateway{webContent: "Forecast: sunny, 22C"}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	res, err := w.Invoke(context.Background(), "weather today")
	assert.NoError(t, err)
	assert.Equal(t, "Sunny, 22 degrees.", res.Answer)
	assert.Equal(t, 0, gw.retrieveCalls)
	assert.Equal(t, 1, gw.webCalls)
	assert.Equal(t, 0, provider.structuredCalls)
}

func TestWorkflowGroundingRetryBound(t *testing.T) {
	// Every grounding check fails: the workflow retries via web search
	// exactly MaxGroundingRetries times, then returns the draft unverified.
	provider := &fakeLLM{
		toolResponses: []llm.Message{retrieveCall("question")},
		structuredResponses: []string{
			`{"binary_score": "yes"}`, // grader
			`{"binary_score": "no"}`,  // check 1
			`{"binary_score": "no"}`,  // check 2
			`{"binary_score": "no"}`,  // check 3 -> budget spent
		},
		chatResponses: []string{"draft one", "draft two", "draft three"},
	}
	gw := &fakeGateway{retrieveContent: "some docs", webContent: "some web content"}
	cfg := Config{Hallucinations: true, MaxGroundingRetries: 2}
	w := NewWorkflow(provider, gw, cfg, discardLogger())

	res, err := w.Invoke(context.Background(), "question")
	assert.NoError(t, err)
	assert.True(t, res.Unverified)
	assert.Equal(t, "draft three", res.Answer)
	assert.Equal(t, 2, gw.webCalls)
	assert.Equal(t, 4, provider.structuredCalls)
}

func TestWorkflowHallucinationsDisabled(t *testing.T) {
	provider := &fakeLLM{
		toolResponses:       []llm.Message{retrieveCall("question")},
		structuredResponses: []string{`{"binary_score": "yes"}`},
		chatResponses:       []string{"answer"},
	}
	gw := &fakeGateway{retrieveContent: "docs"}
	cfg := Config{Hallucinations: false, MaxGroundingRetries: 2}
	w := NewWorkflow(provider, gw, cfg, discardLogger())

	res, err := w.Invoke(context.Background(), "question")
	assert.NoError(t, err)
	assert.Equal(t, "answer", res.Answer)
	assert.False(t, res.Unverified)
	// Only the grader ran.
	assert.Equal(t, 1, provider.structuredCalls)
}

func TestWorkflowUnknownToolIsRoutingError(t *testing.T) {
	provider := &fakeLLM{
		toolResponses: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "call-1", Name: "delete_everything", Arguments: map[string]interface{}{"query": "x"}},
				},
			},
		},
	}
	w := NewWorkflow(provider, &fakeGateway{}, DefaultConfig(), discardLogger())

	_, err := w.Invoke(context.Background(), "x")
	assert.Error(t, err)

	var routingErr *errs.RoutingError
	assert.True(t, errors.As(err, &routingErr))
	assert.Equal(t, "delete_everything", routingErr.ToolName)
}

func TestWorkflowInvalidGradeIsValidationError(t *testing.T) {
	provider := &fakeLLM{
		toolResponses:       []llm.Message{retrieveCall("question")},
		structuredResponses: []string{`{"binary_score": "maybe"}`},
	}
	gw := &fakeGateway{retrieveContent: "docs"}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	_, err := w.Invoke(context.Background(), "question")
	assert.Error(t, err)

	var validationErr *errs.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "binary_score", validationErr.Field)
}

func TestWorkflowGatewayErrorPropagates(t *testing.T) {
	provider := &fakeLLM{
		toolResponses: []llm.Message{retrieveCall("question")},
	}
	gw := &fakeGateway{retrieveErr: errs.Gateway("retrieval.search", fmt.Errorf("connection refused"))}
	w := NewWorkflow(provider, gw, DefaultConfig(), discardLogger())

	_, err := w.Invoke(context.Background(), "question")
	assert.Error(t, err)

	var gatewayErr *errs.GatewayError
	assert.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "retrieval.search", gatewayErr.Op)
}
