package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicAPIVersion = "2023-06-01"
	anthropicMaxTokens  = 4096
)

// AnthropicClient streams from the Anthropic Messages API.
type AnthropicClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAnthropicClient creates a Messages API client. baseURL excludes the /v1 suffix.
func NewAnthropicClient(baseURL, apiKey string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{
		baseURL:    strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// StreamText implements LLMClient. System messages travel in the system field.
func (c *AnthropicClient) StreamText(ctx context.Context, req *Request, onDelta DeltaFunc) error {
	system, rest := splitSystem(req.Messages)
	body, err := json.Marshal(anthropicRequest{
		Model:     req.Model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  toChatMessages(&Request{Messages: rest}),
		Stream:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	return doSSE(ctx, c.httpClient, httpReq, "anthropic", func(data []byte) (bool, error) {
		var event anthropicEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return false, nil
		}
		switch event.Type {
		case "content_block_delta":
			if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				return false, onDelta(event.Delta.Text)
			}
		case "message_stop":
			return true, nil
		case "error":
			if event.Error != nil {
				return false, fmt.Errorf("anthropic stream error: %s (type: %s)", event.Error.Message, event.Error.Type)
			}
			return false, fmt.Errorf("anthropic stream error")
		}
		return false, nil
	})
}
