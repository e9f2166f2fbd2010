// Package assistant composes LLM providers into the assistant's use cases:
// chat, document analysis and search summarization.
//
// Information Hiding:
// - Prompt construction for each use case
// - Provider selection through a Resolver
// - Degenerate-input short circuit for documents
//
// Provider failures are returned unchanged so callers can inspect the
// originating *llm.ProviderError.

package assistant

import (
	"log/slog"

	"github.com/richinex/aide/llm"
)

// Resolver maps a provider name to a live provider. An empty name selects
// the configured default. *llm.Registry implements it.
type Resolver interface {
	Resolve(name string) (llm.Provider, error)
}

// Option configures a Service.
type Option func(*Service)

// WithChatParameters sets the sampling parameters used for chat turns.
func WithChatParameters(params llm.ChatParameters) Option {
	return func(s *Service) {
		s.chatParams = params
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service runs assistant use cases against resolved providers.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	providers  Resolver
	chatParams llm.ChatParameters
	logger     *slog.Logger
}

// New creates a Service with injected dependencies.
func New(providers Resolver, opts ...Option) *Service {
	s := &Service{
		providers:  providers,
		chatParams: llm.DefaultChatParameters(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
