// Ollama Provider implementation using the ollama/api client.
//
// Information Hiding:
// - Server URL parsing and HTTP client setup
// - Request/response format for the Ollama chat API
// - Streaming via the client's response callback
//
// Ollama runs locally and needs no credential.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// ollamaClient defines the part of *api.Client the provider uses.
// This allows tests to substitute the client.
type ollamaClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// OllamaProvider implements the Provider interface for a local Ollama server.
// It is stateless and safe for concurrent use.
type OllamaProvider struct {
	client  ollamaClient
	model   string
	timeout time.Duration
}

// NewOllamaProvider creates a new Ollama provider.
// Returns an error if host is not a valid URL.
func NewOllamaProvider(host, model string, timeout time.Duration) (*OllamaProvider, error) {
	if host == "" {
		host = DefaultOllamaHost
	}

	parsedURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return newOllamaProvider(api.NewClient(parsedURL, http.DefaultClient), model, timeout), nil
}

func newOllamaProvider(client ollamaClient, model string, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaProvider{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() ProviderType {
	return ProviderOllama
}

// Model returns the current model.
func (p *OllamaProvider) Model() string {
	return p.model
}

// Chat sends a non-streaming chat request.
func (p *OllamaProvider) Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}

	ctx, cancel := callContext(ctx, p.timeout)
	defer cancel()

	var content strings.Builder
	done := false
	err := p.client.Chat(ctx, p.request(messages, params.withDefaults(), false), func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		done = done || resp.Done
		return nil
	})
	if err != nil {
		return "", normalizeError(ctx, ProviderOllama, "chat", err, ollamaStatus)
	}
	if !done {
		return "", malformed(ProviderOllama, "response ended before completion")
	}

	return content.String(), nil
}

// StreamChat streams a chat response.
func (p *OllamaProvider) StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}
	req := p.request(messages, params.withDefaults(), true)

	return newStream(ctx, ProviderOllama, p.timeout, "chat stream", ollamaStatus, func(ctx context.Context, emit EmitFunc) error {
		done := false
		err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			done = done || resp.Done
			return emit(resp.Message.Content)
		})
		if err != nil {
			return err
		}
		if !done {
			return malformed(ProviderOllama, "stream ended before completion")
		}
		return nil
	}), nil
}

// AnalyzeDocument analyzes a document with the analysis system prompt.
func (p *OllamaProvider) AnalyzeDocument(ctx context.Context, text, prompt string) (string, error) {
	messages, params := analysisRequest(analysisSystemPrompt, text, prompt)
	return p.Chat(ctx, messages, params)
}

// Summarize summarizes text with the summarization system prompt.
func (p *OllamaProvider) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	messages, params := summaryRequest(summarySystemPrompt, text, maxLength)
	return p.Chat(ctx, messages, params)
}

func (p *OllamaProvider) request(messages []ChatMessage, params ChatParameters, stream bool) *api.ChatRequest {
	return &api.ChatRequest{
		Model:    p.model,
		Messages: convertToOllamaMessages(messages),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}
}

// convertToOllamaMessages converts our ChatMessage to api.Message.
// Ollama accepts the system role natively.
func convertToOllamaMessages(messages []ChatMessage) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

func ollamaStatus(err error) int {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Verify OllamaProvider implements Provider
var _ Provider = (*OllamaProvider)(nil)
