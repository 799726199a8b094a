package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const openAIBaseURL = "https://api.openai.com/v1"

var openAIFallbackModels = []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"}

// OpenAIClient talks to OpenAI or any OpenAI-compatible endpoint through
// langchaingo. The vLLM variant reuses it with a different base URL.
type OpenAIClient struct {
	llm        *openai.LLM
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// catalog behavior
	filterGPT bool
	fallback  []string
}

func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	opts := []openai.Option{}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return &OpenAIClient{
		llm:        llm,
		name:       "openai",
		apiKey:     apiKey,
		baseURL:    openAIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		filterGPT:  true,
		fallback:   openAIFallbackModels,
	}, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (*ChatResponse, error) {
	resp, err := c.llm.GenerateContent(ctx, buildMessageContents(messages), callOptions(model, params)...)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, providerErr(c.name, "no choices returned from %s", c.name)
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:      choice.Content,
		Role:         RoleAssistant,
		Model:        model,
		FinishReason: choice.StopReason,
	}, nil
}

func (c *OpenAIClient) StreamChat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (<-chan StreamChunk, error) {
	msgs := buildMessageContents(messages)
	opts := callOptions(model, params)

	out := make(chan StreamChunk)
	go func() {
		defer close(out)

		streamOpts := append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			select {
			case out <- StreamChunk{Content: string(chunk)}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))

		if _, err := c.llm.GenerateContent(ctx, msgs, streamOpts...); err != nil && ctx.Err() == nil {
			select {
			case out <- StreamChunk{Err: &ProviderError{Provider: c.name, Err: err}}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(c.baseURL, "/")+"/models", nil)
	if err != nil {
		return c.fallback, nil
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fallback, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fallback, nil
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return c.fallback, nil
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		if c.filterGPT && !strings.Contains(m.ID, "gpt") {
			continue
		}
		models = append(models, m.ID)
	}
	return models, nil
}

// buildMessageContents converts chat messages into langchaingo content,
// composing a multi-part payload when an image is attached.
func buildMessageContents(messages []ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var msgType llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}

		if m.ImageURL == "" {
			out = append(out, llms.TextParts(msgType, m.Content))
			continue
		}

		parts := []llms.ContentPart{}
		if m.Content != "" {
			parts = append(parts, llms.TextPart(m.Content))
		}
		parts = append(parts, llms.ImageURLPart(m.ImageURL))
		out = append(out, llms.MessageContent{Role: msgType, Parts: parts})
	}
	return out
}

// callOptions maps the request's free-form parameter bag onto langchaingo
// call options. Unknown keys are ignored rather than rejected.
func callOptions(model string, params map[string]any) []llms.CallOption {
	opts := []llms.CallOption{llms.WithModel(model)}
	if v, ok := floatParam(params, "temperature"); ok {
		opts = append(opts, llms.WithTemperature(v))
	}
	if v, ok := intParam(params, "max_tokens"); ok {
		opts = append(opts, llms.WithMaxTokens(v))
	}
	if v, ok := floatParam(params, "top_p"); ok {
		opts = append(opts, llms.WithTopP(v))
	}
	return opts
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
