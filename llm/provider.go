// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - System prompt placement (native role, side channel or session config)
// - Provider-specific error handling (normalized to *ProviderError)

package llm

import (
	"context"
	"time"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions and document tasks.
type Provider interface {
	// Name returns the provider identity.
	Name() ProviderType

	// Model returns the current model being used.
	Model() string

	// Chat sends the full message history and returns the complete reply.
	Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error)

	// StreamChat sends the full message history and returns a lazy stream of
	// reply fragments. Concatenating the fragments yields what Chat returns.
	StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error)

	// AnalyzeDocument analyzes text. An empty prompt selects DefaultAnalysisPrompt.
	AnalyzeDocument(ctx context.Context, text, prompt string) (string, error)

	// Summarize summarizes text in approximately maxLength words.
	// maxLength <= 0 selects DefaultSummaryLength.
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
}

// DefaultTimeout bounds a provider call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// callContext bounds a single provider call by timeout.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
