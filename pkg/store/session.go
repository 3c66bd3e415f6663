package store

import (
	"fmt"

	"ai-assistant-be/pkg/llm"
)

// Document represents a retrieved content chunk in the RAG system
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Session represents one user's multi-turn conversation. The turn log is
// append-only: turns are never mutated after being appended.
type Session struct {
	ID    string        `json:"id"`
	Turns []llm.Message `json:"turns"`

	// Metadata for last interaction
	LastQuery string `json:"last_query"`
}

// Append adds turns to the log after verifying the tool-call linkage
// invariant still holds for the resulting sequence. The log is left
// untouched on error.
func (s *Session) Append(turns ...llm.Message) error {
	candidate := make([]llm.Message, 0, len(s.Turns)+len(turns))
	candidate = append(candidate, s.Turns...)
	candidate = append(candidate, turns...)
	if err := ValidateTurnLinkage(candidate); err != nil {
		return err
	}
	s.Turns = candidate
	return nil
}

// ValidateTurnLinkage checks that every tool turn references a call-id
// emitted by the immediately preceding assistant turn's tool invocation
// list. The supervisor relies on this linkage to route correctly.
func ValidateTurnLinkage(turns []llm.Message) error {
	for i, t := range turns {
		if t.Role != llm.RoleTool {
			continue
		}
		// Walk back over sibling tool turns to the assistant turn that
		// requested this batch of calls.
		j := i - 1
		for j >= 0 && turns[j].Role == llm.RoleTool {
			j--
		}
		if j < 0 || turns[j].Role != llm.RoleAssistant {
			return fmt.Errorf("tool turn at index %d has no preceding assistant turn", i)
		}
		found := false
		for _, tc := range turns[j].ToolCalls {
			if tc.ID == t.ToolCallID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("tool turn at index %d references unknown call id %q", i, t.ToolCallID)
		}
	}
	return nil
}
