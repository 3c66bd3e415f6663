package service

import (
	"context"
	"log"
	"os"
	"sync"

	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/pkg/agent/chat"
	"ai-assistant-be/pkg/agent/essay"
	"ai-assistant-be/pkg/agent/rag"
	"ai-assistant-be/pkg/agent/supervisor"
	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/retrieval"
	"ai-assistant-be/pkg/retrieval/rerank"
	"ai-assistant-be/pkg/retrieval/websearch"
	"ai-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// IAssistantService defines the assistant service interface
type IAssistantService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetHistory(ctx context.Context, sessionID uuid.UUID) (*dto.GetHistoryResponse, error)
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	UpdateConfig(ctx context.Context, request *dto.UpdateConfigRequest) error
	ActiveConfig() config.AIConfig
}

// runtime is one immutable wiring of the retrieval gateway, the workflows
// and the supervisor. Config changes build a new runtime and swap the
// pointer; in-flight requests finish on the runtime they started with.
type runtime struct {
	supervisor *supervisor.Supervisor
}

type assistantService struct {
	mu    sync.RWMutex
	rt    *runtime
	aiCfg config.AIConfig

	jinaKey           string
	llmProvider       llm.LLMProvider
	embeddingProvider embedding.EmbeddingProvider
	chunkRepo         contract.DocumentChunkRepository
	sessions          *store.SessionRepository
	sysLogger         logger.ILogger
	agentLogger       *log.Logger
}

// NewAssistantService wires the initial runtime. Construction is
// all-or-nothing: a gateway build failure fails the whole service.
func NewAssistantService(
	cfg *config.Config,
	llmProvider llm.LLMProvider,
	embeddingProvider embedding.EmbeddingProvider,
	chunkRepo contract.DocumentChunkRepository,
	sessions *store.SessionRepository,
	sysLogger logger.ILogger,
) (IAssistantService, error) {
	s := &assistantService{
		aiCfg:             cfg.Ai,
		jinaKey:           cfg.Keys.Jina,
		llmProvider:       llmProvider,
		embeddingProvider: embeddingProvider,
		chunkRepo:         chunkRepo,
		sessions:          sessions,
		sysLogger:         sysLogger,
		agentLogger:       log.New(os.Stdout, "[AGENT] ", log.LstdFlags),
	}

	rt, err := s.buildRuntime(s.aiCfg)
	if err != nil {
		return nil, err
	}
	s.rt = rt
	return s, nil
}

func (s *assistantService) buildRuntime(aiCfg config.AIConfig) (*runtime, error) {
	var reranker *rerank.JinaReranker
	if aiCfg.Reranking {
		reranker = rerank.NewJinaReranker(s.jinaKey)
	}

	gatewayCfg := retrieval.Config{
		Collection: aiCfg.CollectionName,
		TopK:       aiCfg.TopK,
		Reranking:  aiCfg.Reranking,
	}

	gateway, err := retrieval.NewGateway(
		gatewayCfg,
		s.embeddingProvider,
		s.chunkRepo,
		reranker,
		websearch.NewDuckDuckGoClient(aiCfg.WebSearchResults),
		s.agentLogger,
	)
	if err != nil {
		return nil, err
	}

	ragCfg := rag.Config{
		Hallucinations:      aiCfg.Hallucinations,
		MaxGroundingRetries: aiCfg.MaxGroundingRetries,
	}

	chatAgent := chat.NewWorkflow(s.llmProvider, s.agentLogger)
	ragAgent := rag.NewWorkflow(s.llmProvider, gateway, ragCfg, s.agentLogger)
	essayAgent := essay.NewWorkflow(s.llmProvider, ragAgent, s.agentLogger)

	sup := supervisor.New(s.llmProvider, chatAgent, ragAgent, essayAgent, s.sessions, s.agentLogger)
	return &runtime{supervisor: sup}, nil
}

func (s *assistantService) runtime() *runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rt
}

func (s *assistantService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := uuid.NewString()
	s.sessions.Save(&store.Session{ID: id})
	s.sysLogger.Info("assistant", "session created", map[string]interface{}{"session_id": id})
	return &dto.CreateSessionResponse{SessionID: id}, nil
}

func (s *assistantService) GetHistory(ctx context.Context, sessionID uuid.UUID) (*dto.GetHistoryResponse, error) {
	// Reads take the same per-session lock the supervisor appends under,
	// so an in-flight chat cannot race the turn-log slice.
	unlock := s.sessions.Lock(sessionID.String())
	defer unlock()

	session, found := s.sessions.Get(sessionID.String())
	if !found {
		return &dto.GetHistoryResponse{SessionID: sessionID.String(), Turns: []dto.TurnDTO{}}, nil
	}

	turns := make([]dto.TurnDTO, len(session.Turns))
	for i, t := range session.Turns {
		turns[i] = dto.TurnDTO{
			Role:     t.Role,
			Content:  t.Content,
			ToolName: t.ToolName,
		}
	}
	return &dto.GetHistoryResponse{SessionID: sessionID.String(), Turns: turns}, nil
}

func (s *assistantService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	rt := s.runtime()

	reply, err := rt.supervisor.Handle(ctx, request.SessionID, request.Message)
	if err != nil {
		s.sysLogger.Error("assistant", "handle failed", map[string]interface{}{
			"session_id": request.SessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	return &dto.SendChatResponse{
		SessionID: request.SessionID,
		Reply:     reply,
	}, nil
}

// UpdateConfig applies new retrieval parameters by building a fresh
// runtime and swapping it in atomically. A failed build leaves the old
// runtime untouched.
func (s *assistantService) UpdateConfig(ctx context.Context, request *dto.UpdateConfigRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.aiCfg
	if request.TopK != nil {
		next.TopK = *request.TopK
	}
	if request.Reranking != nil {
		next.Reranking = *request.Reranking
	}
	if request.Hallucinations != nil {
		next.Hallucinations = *request.Hallucinations
	}

	rt, err := s.buildRuntime(next)
	if err != nil {
		return err
	}

	s.aiCfg = next
	s.rt = rt
	s.sysLogger.Info("assistant", "runtime rebuilt", map[string]interface{}{
		"top_k":          next.TopK,
		"reranking":      next.Reranking,
		"hallucinations": next.Hallucinations,
	})
	return nil
}

func (s *assistantService) ActiveConfig() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aiCfg
}
