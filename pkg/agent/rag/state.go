package rag

import "ai-assistant-be/pkg/llm"

// Tool names known to the pipeline. Anything else reaching the tool router
// is a routing error.
const (
	ToolRetrieve  = "retrieve_documents"
	ToolWebSearch = "web_search"
)

// State is the run state of one answer cycle. Created per invocation,
// mutated by each node, discarded when the cycle ends.
type State struct {
	Question string
	Context  string
	Messages []llm.Message

	// LastTool tags which capability produced the most recent tool turn.
	LastTool string

	// PendingSearch carries the web-search fallback decided by the grader
	// or the hallucination check. An explicit transition, not a fabricated
	// model message: the tools node executes it directly.
	PendingSearch string

	Draft            string
	GroundingRetries int

	// Unverified marks a best-effort answer that failed the grounding
	// check after the retry budget was spent.
	Unverified bool
}

// Result is what one invocation returns to the caller.
type Result struct {
	Answer     string
	Unverified bool
	Messages   []llm.Message
}

func (s *State) last() *llm.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}
