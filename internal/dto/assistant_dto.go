package dto

// SendChatRequest is one user turn addressed to the supervisor.
type SendChatRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
	Message   string `json:"message" validate:"required,min=1,max=8000"`
}

type SendChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type TurnDTO struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ToolName string `json:"tool_name,omitempty"`
}

type GetHistoryResponse struct {
	SessionID string    `json:"session_id"`
	Turns     []TurnDTO `json:"turns"`
}

// UpdateConfigRequest carries the runtime-tunable retrieval parameters.
// Applying it rebuilds the retrieval gateway and the supervisor's tool
// bindings atomically.
type UpdateConfigRequest struct {
	TopK           *int  `json:"top_k" validate:"omitempty,min=1,max=50"`
	Reranking      *bool `json:"reranking"`
	Hallucinations *bool `json:"hallucinations"`
}

type IngestResponse struct {
	Documents int `json:"documents"`
}

// PublishEmbedDocumentMessage is the payload of one ingestion event.
type PublishEmbedDocumentMessage struct {
	Source     string `json:"source"`
	Collection string `json:"collection"`
	Content    string `json:"content"`
}
