package models

import "openchatllm-backend/internal/llm"

// ChatRequest is the body of POST /chat and POST /chat/stream. The last
// element of Messages is the new turn. APIKey and BaseURL override the
// requesting user's stored credentials for this call only; Parameters is
// passed through to the provider verbatim.
type ChatRequest struct {
	Model          string            `json:"model"`
	Messages       []llm.ChatMessage `json:"messages"`
	Provider       string            `json:"provider"`
	Stream         bool              `json:"stream"`
	APIKey         string            `json:"apiKey,omitempty"`
	BaseURL        string            `json:"baseUrl,omitempty"`
	ConversationID string            `json:"conversationId,omitempty"`
	Parameters     map[string]any    `json:"parameters,omitempty"`
}

// SettingsUpdate carries a partial settings patch. Nil fields are left
// untouched; the two maps merge key by key instead of replacing the stored
// map wholesale.
type SettingsUpdate struct {
	APIKeys          map[string]string `json:"api_keys,omitempty"`
	BaseURLs         map[string]string `json:"base_urls,omitempty"`
	SelectedProvider *string           `json:"selected_provider,omitempty"`
	SelectedModel    *string           `json:"selected_model,omitempty"`
}
