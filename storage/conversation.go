// Package storage provides conversation and document storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interfaces
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/richinex/aide/llm"
)

// ErrNotFound is returned when a conversation or document does not exist.
var ErrNotFound = errors.New("not found")

// Conversation describes a stored chat. Messages are loaded separately.
type Conversation struct {
	ID           string
	Title        string
	Provider     string // provider the conversation was started with
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// ConversationStorage defines the interface for storing conversation history.
// Implementations can use different backends (memory, database).
type ConversationStorage interface {
	// CreateConversation starts an empty conversation and assigns its ID.
	CreateConversation(ctx context.Context, title, provider string) (Conversation, error)

	// GetConversation returns ErrNotFound if id does not exist.
	GetConversation(ctx context.Context, id string) (Conversation, error)

	// AppendMessages adds messages after the existing history.
	// Returns ErrNotFound if id does not exist.
	AppendMessages(ctx context.Context, id string, messages ...llm.ChatMessage) error

	// Load loads conversation history in order.
	// Returns empty slice (not nil) if the conversation doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing conversations.
	Load(ctx context.Context, id string) ([]llm.ChatMessage, error)

	// Delete deletes a conversation and its messages.
	Delete(ctx context.Context, id string) error

	// ListConversations lists conversations, most recently updated first.
	ListConversations(ctx context.Context) ([]Conversation, error)
}
