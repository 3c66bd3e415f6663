package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-assistant-be/pkg/errs"
)

// DuckDuckGoClient queries the DuckDuckGo instant-answer API. Results are
// trusted as-is by the RAG pipeline (no relevance grading on web content).
type DuckDuckGoClient struct {
	BaseURL    string
	MaxResults int
	Client     *http.Client
}

func NewDuckDuckGoClient(maxResults int) *DuckDuckGoClient {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &DuckDuckGoClient{
		BaseURL:    "https://api.duckduckgo.com",
		MaxResults: maxResults,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ddgRelatedTopic struct {
	Text     string            `json:"Text"`
	FirstURL string            `json:"FirstURL"`
	Topics   []ddgRelatedTopic `json:"Topics"`
}

type ddgResponse struct {
	AbstractText  string            `json:"AbstractText"`
	AbstractURL   string            `json:"AbstractURL"`
	RelatedTopics []ddgRelatedTopic `json:"RelatedTopics"`
}

// Search returns up to MaxResults snippets joined by newlines.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		c.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", errs.Gateway("websearch", fmt.Errorf("create request: %w", err))
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", errs.Gateway("websearch", fmt.Errorf("duckduckgo request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Gateway("websearch", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", errs.Gateway("websearch", fmt.Errorf("duckduckgo returned status %d", resp.StatusCode))
	}

	var ddg ddgResponse
	if err := json.Unmarshal(bodyBytes, &ddg); err != nil {
		return "", errs.Gateway("websearch", fmt.Errorf("unmarshal response: %w", err))
	}

	snippets := collectSnippets(&ddg, c.MaxResults)
	return strings.Join(snippets, "\n"), nil
}

func collectSnippets(ddg *ddgResponse, max int) []string {
	var snippets []string
	if ddg.AbstractText != "" {
		s := ddg.AbstractText
		if ddg.AbstractURL != "" {
			s = fmt.Sprintf("%s (%s)", s, ddg.AbstractURL)
		}
		snippets = append(snippets, s)
	}

	var walk func(topics []ddgRelatedTopic)
	walk = func(topics []ddgRelatedTopic) {
		for _, t := range topics {
			if len(snippets) >= max {
				return
			}
			if t.Text != "" {
				s := t.Text
				if t.FirstURL != "" {
					s = fmt.Sprintf("%s (%s)", s, t.FirstURL)
				}
				snippets = append(snippets, s)
			}
			if len(t.Topics) > 0 {
				walk(t.Topics)
			}
		}
	}
	walk(ddg.RelatedTopics)

	if len(snippets) > max {
		snippets = snippets[:max]
	}
	return snippets
}
