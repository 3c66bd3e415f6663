package store

import (
	"testing"

	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestValidateTurnLinkage(t *testing.T) {
	tests := []struct {
		name    string
		turns   []llm.Message
		wantErr bool
	}{
		{
			name:    "empty log",
			turns:   nil,
			wantErr: false,
		},
		{
			name: "plain conversation without tools",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "hi"},
				{Role: llm.RoleAssistant, Content: "hello"},
			},
			wantErr: false,
		},
		{
			name: "linked tool turn",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "q"},
				{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "chat"}}},
				{Role: llm.RoleTool, Content: "a", ToolCallID: "c1"},
			},
			wantErr: false,
		},
		{
			name: "tool turn references unknown call id",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "q"},
				{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "chat"}}},
				{Role: llm.RoleTool, Content: "a", ToolCallID: "c2"},
			},
			wantErr: true,
		},
		{
			name: "tool turn without preceding assistant",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "q"},
				{Role: llm.RoleTool, Content: "a", ToolCallID: "c1"},
			},
			wantErr: true,
		},
		{
			name: "tool turn first in log",
			turns: []llm.Message{
				{Role: llm.RoleTool, Content: "a", ToolCallID: "c1"},
			},
			wantErr: true,
		},
		{
			name: "sibling tool turns share one assistant",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "q"},
				{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1"}, {ID: "c2"}}},
				{Role: llm.RoleTool, Content: "a1", ToolCallID: "c1"},
				{Role: llm.RoleTool, Content: "a2", ToolCallID: "c2"},
			},
			wantErr: false,
		},
		{
			name: "second sibling references unknown id",
			turns: []llm.Message{
				{Role: llm.RoleUser, Content: "q"},
				{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1"}}},
				{Role: llm.RoleTool, Content: "a1", ToolCallID: "c1"},
				{Role: llm.RoleTool, Content: "a2", ToolCallID: "c3"},
			},
			wantErr: true,
		},
		{
			name: "assistant without tool calls does not satisfy linkage",
			turns: []llm.Message{
				{Role: llm.RoleAssistant, Content: "answer"},
				{Role: llm.RoleTool, Content: "a", ToolCallID: "c1"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurnLinkage(tt.turns)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionAppendAtomicity(t *testing.T) {
	s := &Session{ID: "sess-1"}

	err := s.Append(
		llm.Message{Role: llm.RoleUser, Content: "q"},
		llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "chat"}}},
		llm.Message{Role: llm.RoleTool, Content: "a", ToolCallID: "c1"},
	)
	assert.NoError(t, err)
	assert.Len(t, s.Turns, 3)

	// A batch that breaks linkage must leave the log untouched.
	err = s.Append(
		llm.Message{Role: llm.RoleUser, Content: "q2"},
		llm.Message{Role: llm.RoleTool, Content: "orphan", ToolCallID: "zzz"},
	)
	assert.Error(t, err)
	assert.Len(t, s.Turns, 3)
}
