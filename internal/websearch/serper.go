package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/utils"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// SerperSearcher queries the serper.dev Google-proxy API.
type SerperSearcher struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewSerperSearcher creates a serper.dev searcher.
func NewSerperSearcher(apiKey string) *SerperSearcher {
	return &SerperSearcher{
		apiKey:     apiKey,
		endpoint:   defaultSerperEndpoint,
		httpClient: http.DefaultClient,
	}
}

// Search retrieves web results for a query.
func (s *SerperSearcher) Search(ctx context.Context, query string, limit int) ([]domain.WebSource, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	payload, err := json.Marshal(map[string]any{"q": query, "num": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	results := make([]domain.WebSource, 0, limit)
	for i, r := range raw.Organic {
		if i >= limit {
			break
		}
		results = append(results, domain.WebSource{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return results, nil
}
