// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming via go-openai library

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
// It is stateless and safe for concurrent use.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a new OpenAI provider.
// An empty baseURL selects the public OpenAI endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() ProviderType {
	return ProviderOpenAI
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}
	params = params.withDefaults()

	ctx, cancel := callContext(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, params, false))
	if err != nil {
		return "", normalizeError(ctx, ProviderOpenAI, "chat completion", err, openAIStatus)
	}

	if len(resp.Choices) == 0 {
		return "", malformed(ProviderOpenAI, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat streams a chat completion.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}
	req := p.request(messages, params.withDefaults(), true)

	return newStream(ctx, ProviderOpenAI, p.timeout, "chat stream", openAIStatus, func(ctx context.Context, emit EmitFunc) error {
		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return fmt.Errorf("stream creation: %w", err)
		}
		defer stream.Close()

		// Recv reports io.EOF both for [DONE] and for a dropped body, so
		// completion is judged by the finish reason instead.
		finished := false
		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				if !finished {
					return malformed(ProviderOpenAI, "stream ended before a finish reason was received")
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("stream recv: %w", err)
			}

			if len(response.Choices) > 0 {
				choice := response.Choices[0]
				if choice.FinishReason != "" {
					finished = true
				}
				if err := emit(choice.Delta.Content); err != nil {
					return err
				}
			}
		}
	}), nil
}

// AnalyzeDocument analyzes a document with the analysis system prompt.
func (p *OpenAIProvider) AnalyzeDocument(ctx context.Context, text, prompt string) (string, error) {
	messages, params := analysisRequest(analysisSystemPrompt, text, prompt)
	return p.Chat(ctx, messages, params)
}

// Summarize summarizes text with the summarization system prompt.
func (p *OpenAIProvider) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	messages, params := summaryRequest(summarySystemPrompt, text, maxLength)
	return p.Chat(ctx, messages, params)
}

func (p *OpenAIProvider) request(messages []ChatMessage, params ChatParameters, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   int(params.MaxTokens),
		Temperature: params.Temperature,
		Stream:      stream,
	}
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage.
// OpenAI accepts the system role natively, so order is preserved as-is.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
