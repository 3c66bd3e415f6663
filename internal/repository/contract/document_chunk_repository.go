package contract

import (
	"context"

	"ai-assistant-be/internal/model"
)

// ScoredDocumentChunk wraps DocumentChunk with its similarity score
type ScoredDocumentChunk struct {
	Chunk      *model.DocumentChunk
	Similarity float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*model.DocumentChunk) error
	DeleteBySource(ctx context.Context, collection, source string) error
	DeleteByCollection(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int64, error)
	// SearchSimilarWithScore returns chunks with their similarity scores,
	// best first, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, collection string, embedding []float32, limit int, threshold float64) ([]*ScoredDocumentChunk, error)
}
