// Package storage provides SQLite conversation and document storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/aide/llm"
)

// SqliteStorage implements Store using SQLite.
// Stores conversations, their messages and document analyses in one database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			provider TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_updated
		ON conversations(updated_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,
			UNIQUE(conversation_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, message_index);

		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			extracted_text TEXT NOT NULL,
			summary TEXT NOT NULL,
			analysis TEXT NOT NULL,
			provider TEXT NOT NULL,
			analyzed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_analyzed
		ON documents(analyzed_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateConversation starts an empty conversation.
func (s *SqliteStorage) CreateConversation(ctx context.Context, title, provider string) (Conversation, error) {
	now := time.Now().UTC()
	conv := Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, title, provider, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		conv.ID, conv.Title, conv.Provider, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

const conversationColumns = `
	c.id, c.title, c.provider, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var (
		conv             Conversation
		created, updated int64
	)
	if err := row.Scan(&conv.ID, &conv.Title, &conv.Provider, &created, &updated, &conv.MessageCount); err != nil {
		return Conversation{}, err
	}
	conv.CreatedAt = time.Unix(0, created).UTC()
	conv.UpdatedAt = time.Unix(0, updated).UTC()
	return conv, nil
}

// GetConversation returns the conversation metadata.
func (s *SqliteStorage) GetConversation(ctx context.Context, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+conversationColumns+" FROM conversations c WHERE c.id = ?",
		id,
	)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// AppendMessages adds messages after the existing history.
func (s *SqliteStorage) AppendMessages(ctx context.Context, id string, messages ...llm.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(message_index) + 1, 0) FROM messages WHERE conversation_id = ?",
		id,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read message index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (conversation_id, message_index, role, content) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range messages {
		if _, err := stmt.ExecContext(ctx, id, next+i, msg.Role, msg.Content); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// Load loads conversation history.
// Returns empty slice if the conversation doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, id string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE conversation_id = ? ORDER BY message_index",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{}
	for rows.Next() {
		var msg llm.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Delete deletes a conversation and its messages.
func (s *SqliteStorage) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Foreign key enforcement is off unless enabled per connection.
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return tx.Commit()
}

// ListConversations lists conversations, most recently updated first.
func (s *SqliteStorage) ListConversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+conversationColumns+" FROM conversations c ORDER BY c.updated_at DESC, c.rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return convs, nil
}

// SaveDocument stores a document analysis.
func (s *SqliteStorage) SaveDocument(ctx context.Context, doc DocumentRecord) (DocumentRecord, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.AnalyzedAt.IsZero() {
		doc.AnalyzedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
		(id, filename, file_type, file_size, extracted_text, summary, analysis, provider, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.FileType, doc.FileSize, doc.ExtractedText,
		doc.Summary, doc.Analysis, doc.Provider, doc.AnalyzedAt.UnixNano(),
	)
	if err != nil {
		return DocumentRecord{}, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

const documentColumns = `id, filename, file_type, file_size, extracted_text, summary, analysis, provider, analyzed_at`

func scanDocument(row rowScanner) (DocumentRecord, error) {
	var (
		doc      DocumentRecord
		analyzed int64
	)
	err := row.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.FileSize, &doc.ExtractedText,
		&doc.Summary, &doc.Analysis, &doc.Provider, &analyzed)
	if err != nil {
		return DocumentRecord{}, err
	}
	doc.AnalyzedAt = time.Unix(0, analyzed).UTC()
	return doc, nil
}

// GetDocument returns a stored document analysis.
func (s *SqliteStorage) GetDocument(ctx context.Context, id string) (DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?",
		id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentRecord{}, ErrNotFound
	}
	if err != nil {
		return DocumentRecord{}, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments lists documents, most recently analyzed first.
func (s *SqliteStorage) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY analyzed_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// Verify SqliteStorage implements Store
var _ Store = (*SqliteStorage)(nil)
