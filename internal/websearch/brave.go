package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/utils"
)

const defaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveSearcher queries the Brave Search API.
type BraveSearcher struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewBraveSearcher creates a Brave Search searcher.
func NewBraveSearcher(apiKey string) *BraveSearcher {
	return &BraveSearcher{
		apiKey:     apiKey,
		endpoint:   defaultBraveEndpoint,
		httpClient: http.DefaultClient,
	}
}

// Search retrieves web results for a query.
func (s *BraveSearcher) Search(ctx context.Context, query string, limit int) ([]domain.WebSource, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	reqURL := fmt.Sprintf("%s?q=%s&count=%d", s.endpoint, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	results := make([]domain.WebSource, 0, limit)
	for i, r := range raw.Web.Results {
		if i >= limit {
			break
		}
		results = append(results, domain.WebSource{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}
