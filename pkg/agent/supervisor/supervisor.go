package supervisor

import (
	"context"
	"fmt"
	"log"

	"ai-assistant-be/pkg/agent/chat"
	"ai-assistant-be/pkg/agent/essay"
	"ai-assistant-be/pkg/agent/rag"
	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/store"
)

// Tool names the supervisor offers to the model.
const (
	ToolChat  = "chat"
	ToolRAG   = "research_assistant"
	ToolEssay = "essay_writer"
)

const systemPrompt = `You are a supervisor routing user requests to specialized assistants.
You have three tools: 'chat' for general conversation, 'research_assistant' for
questions that need document or web research, and 'essay_writer' for long-form
writing requests. Pick exactly one tool per request, or answer directly only
for trivial acknowledgements. Always pass the user's message verbatim as the
'query' argument; never rephrase it.`

// Supervisor is the single external entry point. One Handle call performs
// at most one tool dispatch; there is no multi-hop re-planning.
type Supervisor struct {
	llmProvider llm.LLMProvider
	chatAgent   *chat.Workflow
	ragAgent    *rag.Workflow
	essayAgent  *essay.Workflow
	sessions    *store.SessionRepository
	logger      *log.Logger
}

func New(
	llmProvider llm.LLMProvider,
	chatAgent *chat.Workflow,
	ragAgent *rag.Workflow,
	essayAgent *essay.Workflow,
	sessions *store.SessionRepository,
	logger *log.Logger,
) *Supervisor {
	return &Supervisor{
		llmProvider: llmProvider,
		chatAgent:   chatAgent,
		ragAgent:    ragAgent,
		essayAgent:  essayAgent,
		sessions:    sessions,
		logger:      logger,
	}
}

// Handle answers one user query within a session. Calls for the same
// session id are serialized; the turn log is committed only after the full
// cycle succeeds, so a failed cycle leaves no orphaned tool-call turn.
func (s *Supervisor) Handle(ctx context.Context, sessionID string, query string) (string, error) {
	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	session := s.sessions.LoadOrCreate(sessionID)
	history := chat.FilterHistory(session.Turns)

	human := llm.Message{Role: llm.RoleUser, Content: query}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, human)

	resp, err := s.llmProvider.ChatWithTools(ctx, messages, s.toolDescriptors())
	if err != nil {
		return "", err
	}

	var pending []llm.Message
	var answer string

	if len(resp.ToolCalls) == 0 {
		// Model answered directly.
		answer = resp.Content
		pending = []llm.Message{human, *resp}
	} else {
		call := resp.ToolCalls[0]
		answer, err = s.dispatch(ctx, call, history, human)
		if err != nil {
			return "", err
		}
		pending = []llm.Message{
			human,
			*resp,
			{Role: llm.RoleTool, Content: answer, ToolCallID: call.ID, ToolName: call.Name},
		}
	}

	if err := session.Append(pending...); err != nil {
		return "", err
	}
	session.LastQuery = query
	s.sessions.Save(session)

	return answer, nil
}

// dispatch invokes the workflow the model selected. The query argument is
// passed through exactly as the model emitted it.
func (s *Supervisor) dispatch(ctx context.Context, call llm.ToolCall, history []llm.Message, human llm.Message) (string, error) {
	arg, ok := call.Arguments["query"].(string)
	if !ok || arg == "" {
		return "", &errs.ValidationError{
			Field: "query",
			Err:   fmt.Errorf("tool call %s is missing the query argument", call.Name),
		}
	}

	s.logger.Printf("[SUPERVISOR] dispatching to %s", call.Name)

	switch call.Name {
	case ToolChat:
		msgs, err := s.chatAgent.Invoke(ctx, append(history, llm.Message{Role: llm.RoleUser, Content: arg}))
		if err != nil {
			return "", err
		}
		return msgs[len(msgs)-1].Content, nil

	case ToolRAG:
		res, err := s.ragAgent.Invoke(ctx, arg)
		if err != nil {
			return "", err
		}
		if res.Unverified {
			s.logger.Printf("[SUPERVISOR] answer returned unverified")
			return "Note: this answer could not be verified against retrieved sources.\n\n" + res.Answer, nil
		}
		return res.Answer, nil

	case ToolEssay:
		res, err := s.essayAgent.Invoke(ctx, arg)
		if err != nil {
			return "", err
		}
		return res.Draft, nil

	default:
		return "", &errs.RoutingError{Reason: "model selected unknown tool", ToolName: call.Name}
	}
}

func (s *Supervisor) toolDescriptors() []llm.Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The user's message, verbatim and unmodified",
			},
		},
		"required": []string{"query"},
	}
	return []llm.Tool{
		{
			Name:        ToolChat,
			Description: "General conversation: greetings, chit-chat, questions needing no research. Pass the user's message verbatim as the query.",
			Parameters:  schema,
		},
		{
			Name:        ToolRAG,
			Description: "Questions that should be answered from the indexed documents or the web. Pass the user's message verbatim as the query.",
			Parameters:  schema,
		},
		{
			Name:        ToolEssay,
			Description: "Long-form writing requests: essays, articles, structured reports. Pass the user's message verbatim as the query.",
			Parameters:  schema,
		},
	}
}
