package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// Mode describes the operating mode of the generative client.
type Mode int32

const (
	// ModeLive sends real requests to the generative model endpoint.
	ModeLive Mode = iota
	// ModeDegraded serves a fixed fallback completion without network calls.
	// The transition Live -> Degraded is one-way.
	ModeDegraded
)

// String returns the mode name for health/status reporting.
func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// degradedCompletion is served in degraded mode. It is well-formed JSON so the
// downstream decision extractor exercises the same parsing path in both modes.
const degradedCompletion = `{"decision": "uncertain", "amount": null, "justification": "Generative model unavailable; degraded mode response.", "reference_clauses": []}`

// Client is a client for an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
	mode    atomic.Int32
}

// NewClient creates a new generative model client.
// A client constructed without an API key starts in degraded mode.
func NewClient(baseURL, apiKey, model string) *Client {
	c := &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
	if apiKey == "" {
		c.mode.Store(int32(ModeDegraded))
	}
	return c
}

// Mode returns the current operating mode.
func (c *Client) Mode() Mode {
	return Mode(c.mode.Load())
}

// degrade permanently switches the client to degraded mode.
func (c *Client) degrade() {
	c.mode.Store(int32(ModeDegraded))
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

// ChatChoiceMessage represents the message in a chat choice.
type ChatChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      ChatChoiceMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate produces a single free-form text completion for the prompt.
// In degraded mode it returns a fixed fallback completion. A transport
// failure degrades the client for subsequent calls and is returned to the
// caller so the failing query can be reported as an error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.Mode() == ModeDegraded {
		return degradedCompletion, nil
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)

	payload := ChatRequest{
		Model: c.Model,
		Messages: []ChatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// The endpoint is unreachable; later queries get the fallback
		// completion instead of repeating the failing call.
		if !errors.Is(err, context.Canceled) {
			c.degrade()
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
