package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/richinex/aide/llm"
)

func newTestSqlite(t *testing.T) *SqliteStorage {
	t.Helper()
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSqliteStorageAppendAndLoad(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	conv, err := storage.CreateConversation(ctx, "greetings", "anthropic")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	if err := storage.AppendMessages(ctx, conv.ID, llm.UserMessage("Hello"), llm.AssistantMessage("Hi there")); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}
	if err := storage.AppendMessages(ctx, conv.ID, llm.UserMessage("Bye")); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	loaded, err := storage.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded))
	}
	if loaded[0] != llm.UserMessage("Hello") {
		t.Errorf("expected 'Hello', got %+v", loaded[0])
	}
	if loaded[1] != llm.AssistantMessage("Hi there") {
		t.Errorf("expected 'Hi there', got %+v", loaded[1])
	}
	if loaded[2] != llm.UserMessage("Bye") {
		t.Errorf("expected 'Bye', got %+v", loaded[2])
	}

	got, err := storage.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.MessageCount != 3 {
		t.Errorf("expected MessageCount 3, got %d", got.MessageCount)
	}
	if got.Title != "greetings" || got.Provider != "anthropic" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestSqliteStorageMissingConversation(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	loaded, err := storage.Load(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", loaded)
	}

	if _, err := storage.GetConversation(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := storage.AppendMessages(ctx, "nonexistent", llm.UserMessage("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSqliteStorageDelete(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	conv, _ := storage.CreateConversation(ctx, "doomed", "openai")
	if err := storage.AppendMessages(ctx, conv.ID, llm.UserMessage("Test")); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	if err := storage.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	loaded, err := storage.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected messages to be deleted, got %d", len(loaded))
	}
	if _, err := storage.GetConversation(ctx, conv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSqliteStorageListConversations(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	first, _ := storage.CreateConversation(ctx, "first", "gemini")
	second, _ := storage.CreateConversation(ctx, "second", "gemini")

	convs, err := storage.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 2 || convs[0].ID != second.ID {
		t.Fatalf("expected newest conversation first, got %+v", convs)
	}

	time.Sleep(time.Millisecond)
	if err := storage.AppendMessages(ctx, first.ID, llm.UserMessage("bump")); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	convs, _ = storage.ListConversations(ctx)
	if convs[0].ID != first.ID {
		t.Errorf("expected recently updated conversation first, got %s", convs[0].Title)
	}
	if convs[0].MessageCount != 1 || convs[1].MessageCount != 0 {
		t.Errorf("unexpected message counts: %d, %d", convs[0].MessageCount, convs[1].MessageCount)
	}
}

func TestSqliteStorageDocuments(t *testing.T) {
	storage := newTestSqlite(t)
	ctx := context.Background()

	saved, err := storage.SaveDocument(ctx, DocumentRecord{
		Filename:      "notes.md",
		FileType:      "md",
		FileSize:      128,
		ExtractedText: "# Notes\nShip it.",
		Summary:       "short notes",
		Analysis:      "decisive",
		Provider:      "ollama",
	})
	if err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	got, err := storage.GetDocument(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if !got.AnalyzedAt.Equal(saved.AnalyzedAt) {
		t.Errorf("AnalyzedAt round trip: want %v, got %v", saved.AnalyzedAt, got.AnalyzedAt)
	}
	got.AnalyzedAt = saved.AnalyzedAt
	if got != saved {
		t.Errorf("expected %+v, got %+v", saved, got)
	}

	older, _ := storage.SaveDocument(ctx, DocumentRecord{
		Filename:   "old.txt",
		FileType:   "txt",
		AnalyzedAt: saved.AnalyzedAt.Add(-time.Hour),
	})

	docs, err := storage.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != saved.ID || docs[1].ID != older.ID {
		t.Errorf("expected newest document first, got %+v", docs)
	}

	if _, err := storage.GetDocument(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "aide.db")

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	ctx := context.Background()
	conv, err := storage.CreateConversation(ctx, "persisted", "gemini")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	_ = storage.AppendMessages(ctx, conv.ID, llm.UserMessage("remember me"))
	storage.Close()

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Content != "remember me" {
		t.Errorf("expected persisted message, got %+v", loaded)
	}
}
