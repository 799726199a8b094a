package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a conversation as sent by the frontend.
// ImageURL, when set, is a base64 data URL (data:image/png;base64,...).
type ChatMessage struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	ImageURL string         `json:"image_url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatResponse is the result of a single-shot provider call.
type ChatResponse struct {
	Content      string `json:"content"`
	Role         Role   `json:"role"`
	ID           string `json:"id,omitempty"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// StreamChunk is one incremental fragment of a streamed reply. A chunk with
// a non-nil Err terminates the stream; the channel is closed right after.
type StreamChunk struct {
	Content string
	Err     error
}

// Client is the uniform surface every provider adapter implements.
//
// StreamChat returns a lazy, finite, non-restartable channel of fragments.
// Errors that occur before any provider output (bad request, auth, network)
// are returned synchronously where the adapter can detect them; mid-stream
// failures arrive as the final StreamChunk. Cancelling ctx stops the
// producer and releases the underlying connection.
//
// ListModels never fails hard: on upstream trouble each variant falls back
// to a small hardcoded catalog.
type Client interface {
	Chat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (*ChatResponse, error)
	StreamChat(ctx context.Context, messages []ChatMessage, model string, params map[string]any) (<-chan StreamChunk, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ProviderError wraps any transport, auth or parse failure from an upstream
// LLM call. The message is surfaced to the client verbatim.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(provider string, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// ParseDataURL splits a base64 data URL into its MIME type and raw bytes.
func ParseDataURL(dataURL string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, b64, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mimeType = strings.TrimPrefix(header, "data:")
	mimeType = strings.TrimSuffix(mimeType, ";base64")
	data, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mimeType, data, nil
}
