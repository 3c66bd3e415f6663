package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/retrieval/rerank"
	"ai-assistant-be/pkg/retrieval/websearch"
	"ai-assistant-be/pkg/store"
)

// Gateway exposes the two retrieval capabilities the workflows call.
// Both return a single content string: the newline-joined concatenation
// of the answering snippets.
type Gateway interface {
	RetrieveDocuments(ctx context.Context, query string) (string, []store.Document, error)
	WebSearch(ctx context.Context, query string) (string, error)
}

// Config encapsulates retrieval parameters. A Gateway holds one immutable
// snapshot; toggling parameters means building a fresh Gateway.
type Config struct {
	Collection string
	TopK       int
	Threshold  float64
	Reranking  bool
}

func DefaultConfig(collection string) Config {
	return Config{
		Collection: collection,
		TopK:       4,
		Threshold:  0.0,
	}
}

type gateway struct {
	cfg               Config
	embeddingProvider embedding.EmbeddingProvider
	chunkRepo         contract.DocumentChunkRepository
	reranker          *rerank.JinaReranker
	web               *websearch.DuckDuckGoClient
	logger            *log.Logger
}

// NewGateway builds a retrieval gateway. Construction is all-or-nothing:
// a reranking config without a reranker is rejected up front rather than
// failing on first use.
func NewGateway(
	cfg Config,
	embeddingProvider embedding.EmbeddingProvider,
	chunkRepo contract.DocumentChunkRepository,
	reranker *rerank.JinaReranker,
	web *websearch.DuckDuckGoClient,
	logger *log.Logger,
) (Gateway, error) {
	if embeddingProvider == nil {
		return nil, &errs.ConfigurationError{Component: "retrieval", Err: fmt.Errorf("embedding provider is required")}
	}
	if chunkRepo == nil {
		return nil, &errs.ConfigurationError{Component: "retrieval", Err: fmt.Errorf("document chunk repository is required")}
	}
	if web == nil {
		return nil, &errs.ConfigurationError{Component: "retrieval", Err: fmt.Errorf("web search client is required")}
	}
	if cfg.Reranking && reranker == nil {
		return nil, &errs.ConfigurationError{Component: "retrieval", Err: fmt.Errorf("reranking enabled but no reranker configured")}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &gateway{
		cfg:               cfg,
		embeddingProvider: embeddingProvider,
		chunkRepo:         chunkRepo,
		reranker:          reranker,
		web:               web,
		logger:            logger,
	}, nil
}

func (g *gateway) RetrieveDocuments(ctx context.Context, query string) (string, []store.Document, error) {
	embeddingRes, err := g.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return "", nil, errs.Gateway("retrieval.embed", err)
	}

	// Over-fetch when reranking so the cross-encoder has candidates to cut.
	limit := g.cfg.TopK
	if g.cfg.Reranking {
		limit = g.cfg.TopK * 3
	}

	scored, err := g.chunkRepo.SearchSimilarWithScore(
		ctx,
		g.cfg.Collection,
		embeddingRes.Embedding.Values,
		limit,
		g.cfg.Threshold,
	)
	if err != nil {
		return "", nil, errs.Gateway("retrieval.search", err)
	}

	docs := make([]store.Document, len(scored))
	for i, s := range scored {
		docs[i] = store.Document{
			ID:      s.Chunk.Id.String(),
			Title:   s.Chunk.Source,
			Content: s.Chunk.Content,
			Score:   float32(s.Similarity),
		}
	}

	if g.cfg.Reranking && len(docs) > 0 {
		reranked, err := g.reranker.Rerank(ctx, query, docs, g.cfg.TopK)
		if err != nil {
			return "", nil, err
		}
		docs = reranked
	}

	g.logger.Printf("[RETRIEVAL] %d documents for query: %.50s", len(docs), query)

	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	return strings.Join(contents, "\n\n"), docs, nil
}

func (g *gateway) WebSearch(ctx context.Context, query string) (string, error) {
	g.logger.Printf("[RETRIEVAL] Using web search for query: %.50s", query)
	return g.web.Search(ctx, query)
}
