package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"

	// The messages API rejects requests without max_tokens.
	anthropicDefaultMaxTokens = 4096
)

var anthropicModels = []string{
	"claude-3-5-sonnet-20240620",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
}

// AnthropicClient calls the Anthropic messages API directly over HTTP and
// reads its SSE stream. Messages collapse to the two-field {role, content}
// shape; images are not supported on this path.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    anthropicBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type anthropicStreamEvent struct {
	Type  string `json:"type"` // "content_block_delta", "message_stop", "error", ...
	Delta *struct {
		Type string `json:"type"` // "text_delta"
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) buildRequest(ctx context.Context, messages []ChatMessage, model string, params map[string]any, stream bool) (*http.Request, error) {
	msgs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, map[string]any{
			"role":    m.Role,
			"content": m.Content,
		})
	}

	body := map[string]any{
		"model":      model,
		"messages":   msgs,
		"max_tokens": anthropicDefaultMaxTokens,
		"stream":     stream,
	}
	for k, v := range params {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (*ChatResponse, error) {
	req, err := c.buildRequest(ctx, messages, model, params, false)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, providerErr("anthropic", "http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return nil, providerErr("anthropic", "anthropic error %d: %s", resp.StatusCode, buf.String())
	}

	var raw struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, providerErr("anthropic", "decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range raw.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &ChatResponse{
		Content: sb.String(),
		Role:    RoleAssistant,
		ID:      raw.ID,
		Model:   raw.Model,
	}, nil
}

func (c *AnthropicClient) StreamChat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (<-chan StreamChunk, error) {
	req, err := c.buildRequest(ctx, messages, model, params, true)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, providerErr("anthropic", "http do: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		return nil, providerErr("anthropic", "anthropic error %d: %s", resp.StatusCode, buf.String())
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		send := func(chunk StreamChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()

			// SSE data lines look like: "data: { ... }"
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "" || data == "[DONE]" {
				return
			}

			var ev anthropicStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				// Skip a single malformed chunk rather than kill the stream.
				continue
			}

			switch ev.Type {
			case "content_block_delta":
				if ev.Delta != nil && ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
					if !send(StreamChunk{Content: ev.Delta.Text}) {
						return
					}
				}
			case "error":
				msg := "anthropic stream error"
				if ev.Error != nil {
					msg = ev.Error.Message
				}
				send(StreamChunk{Err: providerErr("anthropic", "%s", msg)})
				return
			case "message_stop":
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			send(StreamChunk{Err: providerErr("anthropic", "read stream: %w", err)})
		}
	}()
	return out, nil
}

// ListModels returns the fixed claude catalog; the API exposes no listing
// endpoint worth the extra round trip here.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	models := make([]string, len(anthropicModels))
	copy(models, anthropicModels)
	return models, nil
}
