// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - System prompt passed through the dedicated system field
// - Streaming via official SDK

package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
// It is stateless and safe for concurrent use.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropicProvider creates a new Anthropic provider.
// An empty baseURL selects the public Anthropic endpoint.
func NewAnthropicProvider(apiKey, model, baseURL string, timeout time.Duration) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// One attempt per call.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &AnthropicProvider{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() ProviderType {
	return ProviderAnthropic
}

// Model returns the current model.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}

	ctx, cancel := callContext(ctx, p.timeout)
	defer cancel()

	message, err := p.client.Messages.New(ctx, p.params(messages, params.withDefaults()))
	if err != nil {
		return "", normalizeError(ctx, ProviderAnthropic, "chat completion", err, anthropicStatus)
	}

	var content strings.Builder
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(variant.Text)
		}
	}
	if content.Len() == 0 {
		return "", malformed(ProviderAnthropic, "response contained no text blocks")
	}

	return content.String(), nil
}

// StreamChat streams a chat completion.
func (p *AnthropicProvider) StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}
	req := p.params(messages, params.withDefaults())

	return newStream(ctx, ProviderAnthropic, p.timeout, "chat stream", anthropicStatus, func(ctx context.Context, emit EmitFunc) error {
		stream := p.client.Messages.NewStreaming(ctx, req)
		defer stream.Close()

		stopped := false
		for stream.Next() {
			event := stream.Current()

			switch eventVariant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch deltaVariant := eventVariant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if err := emit(deltaVariant.Text); err != nil {
						return err
					}
				}
			case anthropic.MessageStopEvent:
				stopped = true
			}
		}

		if err := stream.Err(); err != nil {
			return err
		}
		if !stopped {
			return malformed(ProviderAnthropic, "stream ended before message_stop")
		}
		return nil
	}), nil
}

// AnalyzeDocument analyzes a document.
func (p *AnthropicProvider) AnalyzeDocument(ctx context.Context, text, prompt string) (string, error) {
	messages, params := analysisRequest("", text, prompt)
	return p.Chat(ctx, messages, params)
}

// Summarize summarizes text.
func (p *AnthropicProvider) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	messages, params := summaryRequest("", text, maxLength)
	return p.Chat(ctx, messages, params)
}

func (p *AnthropicProvider) params(messages []ChatMessage, params ChatParameters) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := convertToAnthropicMessages(messages)

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(params.MaxTokens),
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(float64(params.Temperature)),
	}

	if systemPrompt != "" {
		req.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}
	return req
}

// convertToAnthropicMessages converts our ChatMessage to Anthropic format.
// Extracts system message and returns it separately.
func convertToAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, string) {
	systemPrompt, turns := splitSystem(messages)

	anthropicMessages := make([]anthropic.MessageParam, 0, len(turns))
	for _, msg := range turns {
		switch msg.Role {
		case RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case RoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
