package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IIngestService loads documents from the configured path and publishes
// one embedding event per document. The consumer does the chunking and
// vector writes, keeping slow embedding work off the request path.
type IIngestService interface {
	IngestDirectory(ctx context.Context) (int, error)
}

type ingestService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	documentsPath string
	collection    string
	sysLogger     logger.ILogger
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	documentsPath string,
	collection string,
	sysLogger logger.ILogger,
) IIngestService {
	return &ingestService{
		pubSub:        pubSub,
		topicName:     topicName,
		documentsPath: documentsPath,
		collection:    collection,
		sysLogger:     sysLogger,
	}
}

func (s *ingestService) IngestDirectory(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.documentsPath)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, entry := range entries {
		if entry.IsDir() || !isSupported(entry.Name()) {
			continue
		}

		path := filepath.Join(s.documentsPath, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			s.sysLogger.Warn("ingest", "skipping unreadable document", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}

		payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{
			Source:     entry.Name(),
			Collection: s.collection,
			Content:    string(content),
		})
		if err != nil {
			return published, err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.pubSub.Publish(s.topicName, msg); err != nil {
			return published, err
		}
		published++
	}

	s.sysLogger.Info("ingest", "documents published for embedding", map[string]interface{}{
		"count": published,
		"path":  s.documentsPath,
	})
	return published, nil
}

func isSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
