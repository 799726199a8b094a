package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnsupportedProvider is returned when a provider key has no registered
// constructor. It maps to a 400 at the HTTP boundary.
var ErrUnsupportedProvider = errors.New("Unsupported provider")

// Factory builds a provider client from per-request credentials. baseURL is
// only meaningful for the vllm variant; the other constructors ignore it.
type Factory func(ctx context.Context, apiKey, baseURL string) (Client, error)

// Registry maps lower-cased provider identifiers to client constructors.
// It is built once at process start and passed by reference; nothing
// mutates it afterwards.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return NewRegistryFrom(map[string]Factory{
		"openai": func(ctx context.Context, apiKey, baseURL string) (Client, error) {
			return NewOpenAIClient(keyOrEnv(apiKey, "OPENAI_API_KEY"))
		},
		"anthropic": func(ctx context.Context, apiKey, baseURL string) (Client, error) {
			return NewAnthropicClient(keyOrEnv(apiKey, "ANTHROPIC_API_KEY")), nil
		},
		"gemini": func(ctx context.Context, apiKey, baseURL string) (Client, error) {
			return NewGeminiClient(ctx, keyOrEnv(apiKey, "GEMINI_API_KEY"))
		},
		"vllm": func(ctx context.Context, apiKey, baseURL string) (Client, error) {
			return NewVLLMClient(apiKey, baseURL)
		},
	})
}

func NewRegistryFrom(factories map[string]Factory) *Registry {
	m := make(map[string]Factory, len(factories))
	for name, f := range factories {
		m[strings.ToLower(name)] = f
	}
	return &Registry{factories: m}
}

// Resolve constructs a client for the named provider. The lookup is
// case-insensitive. Construction failures surface as ProviderError so the
// HTTP layer treats them like any other upstream fault.
func (r *Registry) Resolve(ctx context.Context, name, apiKey, baseURL string) (Client, error) {
	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	client, err := factory(ctx, apiKey, baseURL)
	if err != nil {
		return nil, &ProviderError{Provider: strings.ToLower(name), Err: err}
	}
	return client, nil
}

func keyOrEnv(apiKey, envVar string) string {
	if apiKey != "" {
		return apiKey
	}
	return os.Getenv(envVar)
}
