package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/utils"
)

// DefaultTimeout bounds a single autocomplete round trip. Suggestions
// are useless once the user has typed the next character, so the
// budget is deliberately tight.
const DefaultTimeout = 150 * time.Millisecond

// Client fetches completion phrases from a remote autocomplete
// provider. Providers answer in one of two wire shapes, both of which
// the client normalizes to a flat phrase list:
//
//	[{"phrase": "go testing"}, {"phrase": "go tour"}]
//	["go", ["go testing", "go tour"]]
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates an autocomplete client. The endpoint is the
// provider URL without the query parameter; the typed text is sent as
// "q". A non-positive timeout falls back to DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// Complete fetches completion phrases for the typed text.
func (c *Client) Complete(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.endpoint
	if strings.Contains(reqURL, "?") {
		reqURL += "&q=" + url.QueryEscape(query)
	} else {
		reqURL += "?q=" + url.QueryEscape(query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build autocomplete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to fetch autocomplete: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to read autocomplete response: %w", err)
	}

	phrases, err := parsePhrases(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("autocomplete completed",
		logger.String("query", query),
		logger.Int("phrases", len(phrases)))

	return phrases, nil
}

// parsePhrases decodes either supported wire shape into a phrase list.
func parsePhrases(data []byte) ([]string, error) {
	// Object-list shape: [{"phrase": "..."}]
	var objects []struct {
		Phrase string `json:"phrase"`
	}
	if err := json.Unmarshal(data, &objects); err == nil && len(objects) > 0 && objects[0].Phrase != "" {
		phrases := make([]string, 0, len(objects))
		for _, o := range objects {
			if o.Phrase != "" {
				phrases = append(phrases, o.Phrase)
			}
		}
		return phrases, nil
	}

	// OpenSearch shape: ["query", ["s1", "s2"]]
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("failed to decode autocomplete response: %w", err)
	}
	if len(parts) < 2 {
		return nil, nil
	}

	var phrases []string
	if err := json.Unmarshal(parts[1], &phrases); err != nil {
		return nil, fmt.Errorf("failed to decode autocomplete phrases: %w", err)
	}
	return phrases, nil
}
