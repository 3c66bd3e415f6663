package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-assistant-be/pkg/errs"
	"ai-assistant-be/pkg/store"
)

// JinaReranker rescores retrieval candidates with Jina's cross-encoder
// rerank endpoint. Enabled via the `reranking` toggle.
type JinaReranker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewJinaReranker(apiKey string) *JinaReranker {
	return &JinaReranker{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/rerank",
		model:   "jina-reranker-v2-base-multilingual",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Rerank reorders documents by cross-encoder relevance to the query and
// trims to topN. The input slice is not modified.
func (r *JinaReranker) Rerank(ctx context.Context, query string, documents []store.Document, topN int) ([]store.Document, error) {
	if len(documents) == 0 {
		return documents, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	texts := make([]string, len(documents))
	for i, d := range documents {
		texts[i] = d.Content
	}

	reqBody := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: texts,
		TopN:      topN,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("jina request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Gateway("rerank", fmt.Errorf("jina returned status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var rr rerankResponse
	if err := json.Unmarshal(bodyBytes, &rr); err != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("unmarshal response: %w", err))
	}
	if rr.Error != nil {
		return nil, errs.Gateway("rerank", fmt.Errorf("jina error: %s", rr.Error.Message))
	}

	reranked := make([]store.Document, 0, topN)
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			continue
		}
		doc := documents[res.Index]
		doc.Score = float32(res.RelevanceScore)
		reranked = append(reranked, doc)
	}
	return reranked, nil
}
