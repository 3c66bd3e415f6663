package rag

import (
	"context"
	"fmt"
	"log"

	"ai-assistant-be/pkg/agent/graph"
	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/retrieval"
)

const maxGraphSteps = 30

// Config holds the feature toggles of one workflow instance. A workflow
// never mutates its config; toggling means building a fresh workflow.
type Config struct {
	// Hallucinations enables the grounding check on generated answers.
	Hallucinations bool
	// MaxGroundingRetries bounds how many times a failed grounding check
	// may re-enter the search path before the draft is returned unverified.
	MaxGroundingRetries int
}

func DefaultConfig() Config {
	return Config{
		Hallucinations:      true,
		MaxGroundingRetries: 2,
	}
}

// Workflow answers a single question with retrieval, relevance grading,
// web-search fallback and an optional grounding check:
//
//	agent -> tools -> {grader | generate} -> generate -> {check -> {end | tools}} -> end
type Workflow struct {
	llmProvider llm.LLMProvider
	gateway     retrieval.Gateway
	cfg         Config
	graph       *graph.Graph[*State]
	logger      *log.Logger
}

func NewWorkflow(llmProvider llm.LLMProvider, gateway retrieval.Gateway, cfg Config, logger *log.Logger) *Workflow {
	w := &Workflow{
		llmProvider: llmProvider,
		gateway:     gateway,
		cfg:         cfg,
		logger:      logger,
	}

	g := graph.New[*State]()
	g.AddNode("agent", w.agentNode)
	g.AddNode("tools", w.toolsNode)
	g.AddNode("grader", w.graderNode)
	g.AddNode("generate", w.generateNode)
	g.AddNode("hallucination", w.hallucinationNode)
	g.SetEntryPoint("agent")

	g.AddConditionalEdges("agent", w.routeAfterAgent, map[string]string{
		"tools": "tools",
		"end":   graph.End,
	})
	g.AddConditionalEdges("tools", w.routeTool, map[string]string{
		"grader":   "grader",
		"generate": "generate",
	})
	g.AddConditionalEdges("grader", w.routeAfterGrader, map[string]string{
		"generate":  "generate",
		"websearch": "tools",
	})
	g.AddConditionalEdges("generate", w.routeAfterGenerate, map[string]string{
		"check": "hallucination",
		"end":   graph.End,
	})
	g.AddConditionalEdges("hallucination", w.routeAfterHallucination, map[string]string{
		"websearch": "tools",
		"end":       graph.End,
	})

	w.graph = g
	return w
}

// Invoke answers one question. The run state is private to this call.
func (w *Workflow) Invoke(ctx context.Context, question string) (*Result, error) {
	state := &State{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: question}},
	}

	final, err := w.graph.Execute(ctx, state, maxGraphSteps)
	if err != nil {
		return nil, err
	}

	answer := final.Draft
	if answer == "" {
		if last := final.last(); last != nil {
			answer = last.Content
		}
	}
	return &Result{
		Answer:     answer,
		Unverified: final.Unverified,
		Messages:   final.Messages,
	}, nil
}

// --- Nodes ---

func (w *Workflow) agentNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[RAG] agent deciding for question")

	// The original question is the first human turn.
	for _, m := range state.Messages {
		if m.Role == llm.RoleUser {
			state.Question = m.Content
			break
		}
	}

	tools := []llm.Tool{
		{
			Name:        ToolRetrieve,
			Description: retrieveToolDescription,
			Parameters:  queryToolSchema(),
		},
		{
			Name:        ToolWebSearch,
			Description: webSearchToolDescription,
			Parameters:  queryToolSchema(),
		},
	}

	resp, err := w.llmProvider.ChatWithTools(ctx, state.Messages, tools, llm.WithTemperature(0))
	if err != nil {
		return state, "", err
	}

	state.Messages = append(state.Messages, *resp)
	if len(resp.ToolCalls) == 0 {
		// Direct answer, no retrieval needed.
		state.Draft = resp.Content
	}
	return state, "", nil
}

func (w *Workflow) routeAfterAgent(ctx context.Context, state *State) (*State, string, error) {
	if last := state.last(); last != nil && len(last.ToolCalls) > 0 {
		return state, "tools", nil
	}
	return state, "end", nil
}

func (w *Workflow) toolsNode(ctx context.Context, state *State) (*State, string, error) {
	// Fallback path: a grader or grounding check decided to retry via web
	// search. Executed directly, no model round-trip.
	if state.PendingSearch != "" {
		query := state.PendingSearch
		state.PendingSearch = ""

		content, err := w.gateway.WebSearch(ctx, query)
		if err != nil {
			return state, "", err
		}
		state.LastTool = ToolWebSearch
		state.Messages = append(state.Messages, llm.Message{
			Role:     llm.RoleTool,
			Content:  content,
			ToolName: ToolWebSearch,
		})
		return state, "", nil
	}

	last := state.last()
	if last == nil || len(last.ToolCalls) == 0 {
		return state, "", &errs.RoutingError{Reason: "tools node reached without a pending tool call"}
	}

	call := last.ToolCalls[0]
	query := state.Question
	if q, ok := call.Arguments["query"].(string); ok && q != "" {
		query = q
	}

	var content string
	var err error
	switch call.Name {
	case ToolRetrieve:
		content, _, err = w.gateway.RetrieveDocuments(ctx, query)
	case ToolWebSearch:
		content, err = w.gateway.WebSearch(ctx, query)
	default:
		return state, "", &errs.RoutingError{Reason: "model requested unknown tool", ToolName: call.Name}
	}
	if err != nil {
		return state, "", err
	}

	state.LastTool = call.Name
	state.Messages = append(state.Messages, llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	})
	return state, "", nil
}

// routeTool inspects the most recent tool turn: retrieval results go through
// the grader, web results are trusted by policy and go straight to generate.
func (w *Workflow) routeTool(ctx context.Context, state *State) (*State, string, error) {
	last := state.last()
	if last == nil || last.Role != llm.RoleTool {
		return state, "", &errs.RoutingError{Reason: "last turn is not a tool result"}
	}
	switch last.ToolName {
	case ToolRetrieve:
		return state, "grader", nil
	case ToolWebSearch:
		return state, "generate", nil
	default:
		return state, "", &errs.RoutingError{Reason: "unrecognized tool name", ToolName: last.ToolName}
	}
}

type docGradeScore struct {
	BinaryScore string `json:"binary_score"`
}

func (w *Workflow) graderNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[RAG] grading retrieved documents")

	docs := ""
	if last := state.last(); last != nil {
		docs = last.Content
	}

	prompt := fmt.Sprintf(docGraderPrompt, docs, state.Question)

	var score docGradeScore
	if err := w.llmProvider.StructuredChat(ctx, prompt, &score, llm.WithTemperature(0)); err != nil {
		return state, "", err
	}

	switch score.BinaryScore {
	case "yes":
		w.logger.Printf("[RAG] decision: docs relevant")
		state.Context = docs
	case "no":
		w.logger.Printf("[RAG] decision: docs not relevant, falling back to web search")
		state.PendingSearch = state.Question
	default:
		return state, "", &errs.ValidationError{
			Field: "binary_score",
			Raw:   score.BinaryScore,
			Err:   fmt.Errorf("expected 'yes' or 'no'"),
		}
	}
	return state, "", nil
}

func (w *Workflow) routeAfterGrader(ctx context.Context, state *State) (*State, string, error) {
	if state.PendingSearch != "" {
		return state, "websearch", nil
	}
	return state, "generate", nil
}

func (w *Workflow) generateNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[RAG] generating answer (source: %s)", state.LastTool)

	// The freshest tool result wins over older context, so a grounding
	// retry generates from the new web content rather than the stale docs.
	contextText := state.Context
	if last := state.last(); last != nil && last.Role == llm.RoleTool {
		contextText = last.Content
	}

	prompt := fmt.Sprintf(ragAnswerPrompt, contextText, state.Question)
	answer, err := w.llmProvider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return state, "", err
	}

	state.Context = contextText
	state.Draft = answer
	state.Messages = append(state.Messages, llm.Message{Role: llm.RoleAssistant, Content: answer})
	return state, "", nil
}

func (w *Workflow) routeAfterGenerate(ctx context.Context, state *State) (*State, string, error) {
	if !w.cfg.Hallucinations {
		return state, "end", nil
	}
	// Web results reached by the model's own tool choice (or the grader
	// fallback) are trusted. A grounding retry stays in the check loop.
	if state.LastTool == ToolWebSearch && state.GroundingRetries == 0 {
		return state, "end", nil
	}
	return state, "check", nil
}

func (w *Workflow) hallucinationNode(ctx context.Context, state *State) (*State, string, error) {
	w.logger.Printf("[RAG] checking answer grounding")

	prompt := fmt.Sprintf(hallucinationGraderPrompt, state.Context, state.Draft)

	var score docGradeScore
	if err := w.llmProvider.StructuredChat(ctx, prompt, &score, llm.WithTemperature(0)); err != nil {
		return state, "", err
	}

	switch score.BinaryScore {
	case "yes":
		w.logger.Printf("[RAG] decision: answer grounded")
	case "no":
		if state.GroundingRetries >= w.cfg.MaxGroundingRetries {
			w.logger.Printf("[RAG] grounding retries exhausted, returning unverified answer")
			state.Unverified = true
		} else {
			state.GroundingRetries++
			w.logger.Printf("[RAG] decision: answer not grounded, retry %d via web search", state.GroundingRetries)
			state.PendingSearch = state.Question
		}
	default:
		return state, "", &errs.ValidationError{
			Field: "binary_score",
			Raw:   score.BinaryScore,
			Err:   fmt.Errorf("expected 'yes' or 'no'"),
		}
	}
	return state, "", nil
}

func (w *Workflow) routeAfterHallucination(ctx context.Context, state *State) (*State, string, error) {
	if state.PendingSearch != "" {
		return state, "websearch", nil
	}
	return state, "end", nil
}

func queryToolSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The user's question, verbatim",
			},
		},
		"required": []string{"query"},
	}
}
