// Package storage provides in-memory conversation and document storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/aide/llm"
)

type memoryConversation struct {
	meta     Conversation
	seq      int64 // last-touched order, breaks timestamp ties
	messages []llm.ChatMessage
}

// InMemoryStorage implements Store using in-memory maps.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu            sync.RWMutex
	seq           int64
	conversations map[string]*memoryConversation
	documents     map[string]DocumentRecord
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		conversations: make(map[string]*memoryConversation),
		documents:     make(map[string]DocumentRecord),
	}
}

// Close is a no-op.
func (s *InMemoryStorage) Close() error {
	return nil
}

// CreateConversation starts an empty conversation.
func (s *InMemoryStorage) CreateConversation(ctx context.Context, title, provider string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.seq++
	conv := &memoryConversation{
		meta: Conversation{
			ID:        uuid.NewString(),
			Title:     title,
			Provider:  provider,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.seq,
	}
	s.conversations[conv.meta.ID] = conv
	return conv.meta, nil
}

// GetConversation returns the conversation metadata.
func (s *InMemoryStorage) GetConversation(ctx context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv.meta, nil
}

// AppendMessages adds messages after the existing history.
func (s *InMemoryStorage) AppendMessages(ctx context.Context, id string, messages ...llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}

	conv.messages = append(conv.messages, messages...)
	conv.meta.MessageCount = len(conv.messages)
	conv.meta.UpdatedAt = time.Now().UTC()
	s.seq++
	conv.seq = s.seq
	return nil
}

// Load loads conversation history.
// Returns empty slice if the conversation doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, id string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return []llm.ChatMessage{}, nil
	}

	// Return a copy to avoid external mutations
	copied := make([]llm.ChatMessage, len(conv.messages))
	copy(copied, conv.messages)
	return copied, nil
}

// Delete deletes a conversation.
func (s *InMemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	return nil
}

// ListConversations lists conversations, most recently updated first.
func (s *InMemoryStorage) ListConversations(ctx context.Context) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]*memoryConversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		convs = append(convs, conv)
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].seq > convs[j].seq
	})

	result := make([]Conversation, len(convs))
	for i, conv := range convs {
		result[i] = conv.meta
	}
	return result, nil
}

// SaveDocument stores a document analysis.
func (s *InMemoryStorage) SaveDocument(ctx context.Context, doc DocumentRecord) (DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.AnalyzedAt.IsZero() {
		doc.AnalyzedAt = time.Now().UTC()
	}
	s.documents[doc.ID] = doc
	return doc, nil
}

// GetDocument returns a stored document analysis.
func (s *InMemoryStorage) GetDocument(ctx context.Context, id string) (DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return DocumentRecord{}, ErrNotFound
	}
	return doc, nil
}

// ListDocuments lists documents, most recently analyzed first.
func (s *InMemoryStorage) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]DocumentRecord, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].AnalyzedAt.After(docs[j].AnalyzedAt)
	})
	return docs, nil
}

// Verify InMemoryStorage implements Store
var _ Store = (*InMemoryStorage)(nil)
