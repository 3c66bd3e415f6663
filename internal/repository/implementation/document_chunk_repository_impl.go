package implementation

import (
	"context"

	"ai-assistant-be/internal/model"
	"ai-assistant-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{db: db}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(chunks, 100).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteBySource(ctx context.Context, collection, source string) error {
	return r.db.WithContext(ctx).
		Where("collection = ? AND source = ?", collection, source).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteByCollection(ctx context.Context, collection string) error {
	return r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("collection = ?", collection).
		Count(&count).Error
	return count, err
}

// SearchSimilarWithScore runs a pgvector cosine search. Cosine distance in
// pgvector is 1 - cosine_similarity, so the select inverts it back.
func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, collection string, embedding []float32, limit int, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("collection = ?", collection).
		Where("deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentChunk, len(results))
	for i := range results {
		chunk := results[i].DocumentChunk
		scored[i] = &contract.ScoredDocumentChunk{
			Chunk:      &chunk,
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
