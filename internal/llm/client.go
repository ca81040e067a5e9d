package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/utils"
)

// Client talks to an AI model gateway. The gateway may answer with a
// single JSON body or with line-framed streaming chunks; both OpenAI
// and Ollama response shapes are accepted.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a model gateway client. The timeout bounds
// non-streaming calls only; streams run until done or cancelled.
func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// ChatSync sends a non-streaming chat request and returns the full
// response text.
func (c *Client) ChatSync(ctx context.Context, model string, messages []Message) (string, error) {
	resp, err := c.postChat(ctx, chatRequest{Model: model, Messages: messages, Stream: false})
	if err != nil {
		return "", err
	}
	defer utils.Close(resp.Body)

	var body chunk
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	return body.content(), nil
}

// ChatStream sends a streaming chat request, invoking onChunk for
// every piece of text as it arrives, and returns the accumulated
// response. When the context is cancelled mid-stream the text
// received so far is returned alongside the context error.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, onChunk func(string)) (string, error) {
	req := chatRequest{Model: model, Messages: messages, Stream: true}

	// Streams must outlive the sync timeout.
	streamClient := &http.Client{}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to start chat stream: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return c.readStream(ctx, resp.Body, onChunk)
}

// readStream consumes line-framed chunks until done, the sentinel, or
// cancellation.
func (c *Client) readStream(ctx context.Context, body io.Reader, onChunk func(string)) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var full strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// SSE framing wraps each chunk in a data: field.
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			line = strings.TrimSpace(after)
		}
		if line == doneSentinel {
			break
		}

		var ch chunk
		if err := json.Unmarshal([]byte(line), &ch); err != nil {
			// Skip malformed lines
			continue
		}

		if content := ch.content(); content != "" {
			full.WriteString(content)
			if onChunk != nil {
				onChunk(content)
			}
		}
		if ch.finished() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("failed to read chat stream: %w", err)
	}
	if ctx.Err() != nil {
		return full.String(), ctx.Err()
	}

	return full.String(), nil
}

// ListModels returns the model names the gateway advertises. Both a
// bare name list and an object list are accepted:
//
//	{"models": ["llama3", "qwen3"]}
//	{"models": [{"name": "llama3"}, {"name": "qwen3"}]}
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build models request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model gateway returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read models response: %w", err)
	}

	var withNames struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(data, &withNames); err == nil && len(withNames.Models) > 0 && withNames.Models[0].Name != "" {
		names := make([]string, 0, len(withNames.Models))
		for _, m := range withNames.Models {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
		return names, nil
	}

	var bare struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}
	return bare.Models, nil
}

// Healthy reports whether the gateway answers the models endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.ListModels(ctx)
	if err != nil {
		c.logger.Debug("model gateway health check failed", logger.Error(err))
	}
	return err == nil
}

func (c *Client) postChat(ctx context.Context, req chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send chat request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		utils.Close(resp.Body)
		return nil, fmt.Errorf("model gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
