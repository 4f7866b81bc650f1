package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

// OpenRouterClient implements Client for the OpenRouter API.
// OpenRouter provides access to multiple LLM providers through a single API.
type OpenRouterClient struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
	siteName    string
}

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	SiteName string
}

// DefaultOpenRouterConfig returns sensible defaults.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Model:    "google/gemini-2.0-flash-001",
		Timeout:  120 * time.Second,
		SiteName: "boop",
	}
}

// NewOpenRouterClient creates a new OpenRouter client with default config.
func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return NewOpenRouterClientWithConfig(DefaultOpenRouterConfig(apiKey))
}

// NewOpenRouterClientWithConfig creates a new OpenRouter client.
func NewOpenRouterClientWithConfig(config OpenRouterConfig) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:   config.APIKey,
		baseURL:  config.BaseURL,
		model:    config.Model,
		siteName: config.SiteName,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// WithModel returns a shallow copy of the client bound to a different model.
func (c *OpenRouterClient) WithModel(model string) Client {
	// Copied field by field so the clone gets its own mutex.
	return &OpenRouterClient{
		apiKey:      c.apiKey,
		baseURL:     c.baseURL,
		model:       model,
		httpClient:  c.httpClient,
		lastRequest: c.lastRequest,
		siteName:    c.siteName,
	}
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
// An explicit call-level timeout is applied when the context has no deadline,
// so a hung transport cannot stall a pipeline stage indefinitely.
func (c *OpenRouterClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	logging.GatewayDebug("[OpenRouter] CompleteWithSystem: model=%s system_len=%d user_len=%d",
		c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" {
		return "", NewCallError("openrouter", "complete", fmt.Errorf("API key not configured"))
	}

	// Space out requests slightly to stay under provider rate limits.
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := []openRouterMessage{}
	if systemPrompt != "" {
		messages = append(messages, openRouterMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: userPrompt})

	reqBody := openRouterRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   8192,
		Temperature: 0.2,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewCallError("openrouter", "marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", NewCallError("openrouter", "request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", c.siteName)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewCallError("openrouter", "complete", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewCallError("openrouter", "read", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewCallError("openrouter", "complete",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 500)))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewCallError("openrouter", "decode", err)
	}
	if parsed.Error != nil {
		return "", NewCallError("openrouter", "complete", fmt.Errorf("%s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", NewCallError("openrouter", "complete", fmt.Errorf("no choices in response"))
	}

	logging.GatewayDebug("[OpenRouter] completed in %v (%d bytes)",
		time.Since(start), len(parsed.Choices[0].Message.Content))

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
