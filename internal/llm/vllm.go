package llm

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tmc/langchaingo/llms/openai"
)

const defaultVLLMBaseURL = "http://localhost:8000/v1"

// NewVLLMClient builds an OpenAI-compatible client pointed at a local or
// self-hosted inference endpoint (vLLM, Ollama, ...). It is composition,
// not a separate variant: everything past construction is OpenAIClient.
func NewVLLMClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = os.Getenv("VLLM_BASE_URL")
	}
	if baseURL == "" {
		baseURL = defaultVLLMBaseURL
	}
	if apiKey == "" {
		apiKey = os.Getenv("VLLM_API_KEY")
	}
	if apiKey == "" {
		// vLLM accepts any credential; the openai client just needs one.
		apiKey = "EMPTY"
	}

	llm, err := openai.New(openai.WithToken(apiKey), openai.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create vllm client: %w", err)
	}

	return &OpenAIClient{
		llm:        llm,
		name:       "vllm",
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		filterGPT:  false,
		fallback:   []string{},
	}, nil
}
