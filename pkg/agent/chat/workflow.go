package chat

import (
	"context"
	"log"

	"ai-assistant-be/pkg/llm"
)

const personaPrompt = `You are a friendly, concise assistant for everyday conversation.
Answer directly and keep responses short unless the user asks for detail.`

// Workflow is the passthrough chat agent: no retrieval, no branching.
// Its one real responsibility is the history filter: prior system turns
// are dropped so persona prompts do not accumulate turn over turn.
type Workflow struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewWorkflow(llmProvider llm.LLMProvider, logger *log.Logger) *Workflow {
	return &Workflow{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Invoke answers against the filtered history and returns the full message
// sequence with the answer appended.
func (w *Workflow) Invoke(ctx context.Context, history []llm.Message) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: personaPrompt})
	messages = append(messages, FilterHistory(history)...)

	answer, err := w.llmProvider.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: answer})
	return messages, nil
}

// FilterHistory keeps only human/assistant/tool turns.
func FilterHistory(history []llm.Message) []llm.Message {
	filtered := make([]llm.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant, llm.RoleTool:
			filtered = append(filtered, m)
		}
	}
	return filtered
}
