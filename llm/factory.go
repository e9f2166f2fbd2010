// LLM Provider Factory - builder-first API for creating LLM providers.
//
// Quick Start:
//
//	// Explicit API key, default model
//	openai, err := llm.ProviderOpenAI.APIKey("sk-...")
//
//	// With custom model and timeout
//	claude, err := llm.ProviderAnthropic.
//	    Model(llm.ModelAnthropicClaudeSonnet4).
//	    Timeout(30 * time.Second).
//	    APIKey(key)
//
//	// Ollama needs no key, only a host
//	local, err := llm.ProviderOllama.Model("llama3.2").BaseURL("http://gpu-box:11434").Build()
//
// Most callers go through a Registry instead, which builds providers from
// config.AIConfig and caches them.

package llm

import (
	"fmt"
	"strings"
	"time"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
	// ProviderOllama is a local Ollama server.
	ProviderOllama
)

// AllProviders lists every provider in discovery order.
var AllProviders = []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	case ProviderOllama:
		return "ollama"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
// Ollama has none.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// NeedsAPIKey reports whether the provider requires a credential.
func (p ProviderType) NeedsAPIKey() bool {
	return p.EnvVar() != ""
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderGemini:
		return ModelGeminiFlash2
	case ProviderOllama:
		return ModelOllamaLlama32
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
// Unknown names return *UnsupportedProviderError.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "ollama":
		return ProviderOllama, nil
	default:
		return 0, &UnsupportedProviderError{Name: s}
	}
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	baseURL      string
	timeout      time.Duration
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// BaseURL overrides the API endpoint. For Ollama this is the server host.
// Gemini ignores it.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// Timeout bounds every call made by the provider.
func (b *ProviderBuilder) Timeout(d time.Duration) *ProviderBuilder {
	b.timeout = d
	return b
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	if key == "" && b.providerType.NeedsAPIKey() {
		return nil, &ProviderError{
			Kind:     KindAuth,
			Provider: b.providerType,
			Message:  b.providerType.EnvVar() + " not set",
		}
	}
	return b.build(key)
}

// Build builds a provider that needs no credential.
func (b *ProviderBuilder) Build() (Provider, error) {
	return b.APIKey("")
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}

	timeout := b.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, b.baseURL, timeout), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, b.baseURL, timeout), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, timeout), nil
	case ProviderOllama:
		return NewOllamaProvider(b.baseURL, model, timeout)
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Model identifier constants for all supported providers.

// OpenAI model identifiers
const (
	// ModelOpenAIGPT4o is GPT-4o: general purpose flagship.
	ModelOpenAIGPT4o = "gpt-4o"
	// ModelOpenAIGPT4oMini is GPT-4o-mini: cheaper and faster.
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	// ModelOpenAIGPT4Turbo is GPT-4 Turbo.
	ModelOpenAIGPT4Turbo = "gpt-4-turbo-preview"
)

// Anthropic model identifiers
const (
	// ModelAnthropicClaudeSonnet4 is Claude Sonnet 4: Balanced performance.
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	// ModelAnthropicClaudeOpus45 is Claude Opus 4.5.
	ModelAnthropicClaudeOpus45 = "claude-opus-4-5-20251101"
	// ModelAnthropicClaude3Sonnet is Claude 3 Sonnet: Legacy model.
	ModelAnthropicClaude3Sonnet = "claude-3-sonnet-20240229"
)

// Gemini model identifiers
const (
	// ModelGeminiFlash2 is Gemini 2.0 Flash.
	ModelGeminiFlash2 = "gemini-2.0-flash"
	// ModelGeminiPro2 is Gemini 2.0 Pro.
	ModelGeminiPro2 = "gemini-2.0-pro"
)

// Ollama model identifiers
const (
	// ModelOllamaLlama32 is Llama 3.2, the default local model.
	ModelOllamaLlama32 = "llama3.2"
)
