package bootstrap

import (
	"log"

	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/controller"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/implementation"
	"ai-assistant-be/internal/service"
	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/llm/factory"
	"ai-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	IngestService   service.IIngestService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	default:
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	// LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Storage
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	sessionRepo := store.NewSessionRepository()

	// Services
	assistantService, err := service.NewAssistantService(
		cfg,
		llmProvider,
		embeddingProvider,
		chunkRepo,
		sessionRepo,
		sysLogger,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to build assistant runtime: %v", err)
	}

	ingestService := service.NewIngestService(
		pubSub,
		cfg.Keys.EmbedTopic,
		cfg.Ai.DocumentsPath,
		cfg.Ai.CollectionName,
		sysLogger,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		chunkRepo,
		func(text, taskType string) ([]float32, error) {
			res, err := embeddingProvider.Generate(text, taskType)
			if err != nil {
				return nil, err
			}
			return res.Embedding.Values, nil
		},
		sysLogger,
	)

	return &Container{
		AssistantController: controller.NewAssistantController(assistantService, ingestService),
		ConsumerService:     consumerService,
		IngestService:       ingestService,
		Logger:              sysLogger,
	}
}
