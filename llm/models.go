// Package llm provides shared data models for LLM providers.
package llm

import (
	"errors"
	"fmt"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidMessages is returned when a message sequence cannot be sent to
// any provider. It is a caller error and never wrapped in a ProviderError.
var ErrInvalidMessages = errors.New("invalid chat messages")

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// ValidateMessages checks that messages is non-empty, uses only known roles
// and carries at most one system message.
func ValidateMessages(messages []ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidMessages)
	}

	systems := 0
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systems++
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidMessages, i, msg.Role)
		}
	}
	if systems > 1 {
		return fmt.Errorf("%w: %d system messages, at most one allowed", ErrInvalidMessages, systems)
	}
	return nil
}

// splitSystem separates the system prompt from the conversational turns.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system string
	turns := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}
		turns = append(turns, msg)
	}
	return system, turns
}

// ChatParameters controls sampling for a single chat call.
type ChatParameters struct {
	Temperature float32
	MaxTokens   uint32
}

// DefaultChatParameters returns the parameters used for open-ended chat.
func DefaultChatParameters() ChatParameters {
	return ChatParameters{
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

// withDefaults fills zero fields from DefaultChatParameters.
// A zero temperature is a valid setting and is kept.
func (p ChatParameters) withDefaults() ChatParameters {
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultChatParameters().MaxTokens
	}
	if p.Temperature < 0 {
		p.Temperature = 0
	}
	return p
}
