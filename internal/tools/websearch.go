package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is one web search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

const searchResultLimit = 5

// SerperSearcher queries the Serper.dev Google search API.
type SerperSearcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewSerperSearcher(apiKey string) *SerperSearcher {
	return &SerperSearcher{
		endpoint: "https://google.serper.dev/search",
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SerperSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": searchResultLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}

// TavilySearcher queries the Tavily search API.
type TavilySearcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewTavilySearcher(apiKey string) *TavilySearcher {
	return &TavilySearcher{
		endpoint: "https://api.tavily.com/search",
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *TavilySearcher) Search(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":     s.apiKey,
		"query":       query,
		"max_results": searchResultLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		results = append(results, Result{Title: item.Title, Link: item.URL, Snippet: item.Content})
	}
	return results, nil
}
