package assistant

import (
	"context"
	"errors"

	"github.com/richinex/aide/llm"
)

// ErrStreamingUnsupported is returned by RunChat when a streamed reply is
// requested. Callers that want fragments use StreamChat.
var ErrStreamingUnsupported = errors.New("streaming not supported by RunChat: use StreamChat")

// ChatResult is a complete assistant reply and the provider that produced it.
type ChatResult struct {
	Reply    string
	Provider llm.ProviderType
}

// ChatStream is a streamed assistant reply. Provider() reports the provider
// actually used.
type ChatStream struct {
	*llm.Stream
}

// RunChat appends text as a user turn to history and returns the reply.
// history is not modified. stream must be false.
func (s *Service) RunChat(ctx context.Context, history []llm.ChatMessage, text, provider string, stream bool) (ChatResult, error) {
	p, err := s.providers.Resolve(provider)
	if err != nil {
		return ChatResult{}, err
	}

	messages := withUserTurn(history, text)

	if stream {
		return ChatResult{}, ErrStreamingUnsupported
	}

	s.logger.Debug("chat", "provider", p.Name().String(), "model", p.Model(), "turns", len(messages))

	reply, err := p.Chat(ctx, messages, s.chatParams)
	if err != nil {
		return ChatResult{}, err
	}

	return ChatResult{
		Reply:    reply,
		Provider: p.Name(),
	}, nil
}

// StreamChat is RunChat with a lazily streamed reply. The caller must drain
// or Close the returned stream.
func (s *Service) StreamChat(ctx context.Context, history []llm.ChatMessage, text, provider string) (*ChatStream, error) {
	p, err := s.providers.Resolve(provider)
	if err != nil {
		return nil, err
	}

	messages := withUserTurn(history, text)
	s.logger.Debug("chat stream", "provider", p.Name().String(), "model", p.Model(), "turns", len(messages))

	stream, err := p.StreamChat(ctx, messages, s.chatParams)
	if err != nil {
		return nil, err
	}
	return &ChatStream{Stream: stream}, nil
}

// withUserTurn returns a copy of history with a user message appended.
func withUserTurn(history []llm.ChatMessage, text string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, len(history), len(history)+1)
	copy(messages, history)
	return append(messages, llm.UserMessage(text))
}
