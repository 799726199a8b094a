package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

var geminiFallbackModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-2.0-flash-exp"}

const defaultStreamPacing = 10 * time.Millisecond

// GeminiClient implements Client for Gemini via the Google AI API.
type GeminiClient struct {
	client *genai.Client

	// pacing between simulated stream fragments; see StreamChat.
	pacing time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &GeminiClient{client: client, pacing: defaultStreamPacing}, nil
}

// formatGeminiContents converts chat messages to genai content. When a
// message carries an image data URL, the decoded image part goes FIRST,
// ahead of the text part: Gemini is documented to prefer image-before-text
// ordering for vision prompts.
func formatGeminiContents(messages []ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}

		parts := []*genai.Part{}
		if m.ImageURL != "" {
			if mimeType, data, err := ParseDataURL(m.ImageURL); err == nil {
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: mimeType, Data: data},
				})
			}
		}
		if m.Content != "" {
			parts = append(parts, &genai.Part{Text: m.Content})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}
	return contents
}

func geminiConfig(params map[string]any) *genai.GenerateContentConfig {
	if len(params) == 0 {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if v, ok := floatParam(params, "temperature"); ok {
		t := float32(v)
		cfg.Temperature = &t
	}
	if v, ok := intParam(params, "max_tokens"); ok {
		cfg.MaxOutputTokens = int32(v)
	}
	if v, ok := floatParam(params, "top_p"); ok {
		t := float32(v)
		cfg.TopP = &t
	}
	return cfg
}

func (c *GeminiClient) Chat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, model, formatGeminiContents(messages), geminiConfig(params))
	if err != nil {
		return nil, providerErr("gemini", "gemini GenerateContent: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, providerErr("gemini", "gemini returned no candidates")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	return &ChatResponse{
		Content: sb.String(),
		Role:    RoleAssistant,
		Model:   model,
	}, nil
}

// StreamChat performs one full generation and then synthesizes an
// incremental sequence by splitting the finished text on spaces and pacing
// out the tokens. This is a deliberate approximation of token streaming,
// not an attempt at the real streaming API.
func (c *GeminiClient) StreamChat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (<-chan StreamChunk, error) {
	resp, err := c.Chat(ctx, messages, model, params)
	if err != nil {
		return nil, err
	}
	return simulateStream(ctx, resp.Content, c.pacing), nil
}

// simulateStream yields text word by word. Each fragment past the first
// carries its leading space so that plain concatenation reproduces the
// original text exactly.
func simulateStream(ctx context.Context, text string, pacing time.Duration) <-chan StreamChunk {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for i, word := range strings.Split(text, " ") {
			chunk := word
			if i > 0 {
				chunk = " " + word
			}
			if chunk == "" {
				continue
			}
			select {
			case out <- StreamChunk{Content: chunk}:
			case <-ctx.Done():
				return
			}
			if pacing > 0 {
				select {
				case <-time.After(pacing):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	models := []string{}
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return append([]string{}, geminiFallbackModels...), nil
		}
		supported := false
		for _, action := range m.SupportedActions {
			if action == "generateContent" {
				supported = true
				break
			}
		}
		if supported {
			models = append(models, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return models, nil
}
