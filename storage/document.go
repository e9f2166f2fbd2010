package storage

import (
	"context"
	"time"
)

// DocumentRecord is a stored document analysis.
type DocumentRecord struct {
	ID            string
	Filename      string
	FileType      string
	FileSize      int64
	ExtractedText string
	Summary       string
	Analysis      string
	Provider      string
	AnalyzedAt    time.Time
}

// DocumentStorage stores document analyses.
type DocumentStorage interface {
	// SaveDocument stores doc, assigning an ID and AnalyzedAt when unset.
	// Saving a record with an existing ID replaces it.
	SaveDocument(ctx context.Context, doc DocumentRecord) (DocumentRecord, error)

	// GetDocument returns ErrNotFound if id does not exist.
	GetDocument(ctx context.Context, id string) (DocumentRecord, error)

	// ListDocuments lists documents, most recently analyzed first.
	ListDocuments(ctx context.Context) ([]DocumentRecord, error)
}

// Store is the full storage surface used by the CLI.
type Store interface {
	ConversationStorage
	DocumentStorage
	Close() error
}
