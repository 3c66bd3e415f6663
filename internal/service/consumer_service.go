package service

import (
	"context"
	"encoding/json"

	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/model"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

const (
	chunkSize    = 1000
	chunkOverlap = 0
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// embedFunc keeps the consumer decoupled from a concrete embedding
// provider; it returns the (normalized) vector for one chunk.
type embedFunc func(text, taskType string) ([]float32, error)

type consumer struct {
	pubSub    *gochannel.GoChannel
	topicName string
	chunkRepo contract.DocumentChunkRepository
	embed     embedFunc
	sysLogger logger.ILogger
}

// NewConsumerService subscribes to the embedding topic and turns each
// published document into chunked pgvector rows.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.DocumentChunkRepository,
	embed embedFunc,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumer{
		pubSub:    pubSub,
		topicName: topicName,
		chunkRepo: chunkRepo,
		embed:     embed,
		sysLogger: sysLogger,
	}
}

func (cs *consumer) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.sysLogger.Info("consumer", "embedding document", map[string]interface{}{"source": payload.Source})

	// Re-ingesting a document replaces its previous chunks.
	if err := cs.chunkRepo.DeleteBySource(ctx, payload.Collection, payload.Source); err != nil {
		cs.sysLogger.Error("consumer", "failed to clear old chunks", map[string]interface{}{
			"source": payload.Source,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}

	chunks := utils.SplitText(payload.Content, chunkSize, chunkOverlap)
	rows := make([]*model.DocumentChunk, 0, len(chunks))

	for i, chunk := range chunks {
		values, err := cs.embed(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			cs.sysLogger.Error("consumer", "embedding failed", map[string]interface{}{
				"source": payload.Source,
				"chunk":  i,
				"error":  err.Error(),
			})
			msg.Nack() // Retriable: the embedding backend may be down
			return
		}

		meta, err := json.Marshal(map[string]interface{}{"source": payload.Source, "chunk": i})
		if err != nil {
			cs.sysLogger.Error("consumer", "failed to marshal chunk metadata", map[string]interface{}{
				"source": payload.Source,
				"chunk":  i,
				"error":  err.Error(),
			})
			msg.Ack() // not retriable
			return
		}
		rows = append(rows, &model.DocumentChunk{
			Collection:     payload.Collection,
			Source:         payload.Source,
			Content:        chunk,
			EmbeddingValue: pgvector.NewVector(values),
			ChunkIndex:     i,
			Metadata:       datatypes.JSON(meta),
		})
	}

	if err := cs.chunkRepo.CreateBulk(ctx, rows); err != nil {
		cs.sysLogger.Error("consumer", "failed to store chunks", map[string]interface{}{
			"source": payload.Source,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}

	cs.sysLogger.Info("consumer", "document embedded", map[string]interface{}{
		"source": payload.Source,
		"chunks": len(rows),
	})
	msg.Ack()
}
