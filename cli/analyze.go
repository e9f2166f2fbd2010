package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/richinex/aide/storage"
)

// textFileTypes are the document types read without an extraction service.
var textFileTypes = map[string]bool{
	"txt": true,
	"md":  true,
}

// Analyze reads a text document, summarizes and analyzes it, prints the
// result and stores it.
func (a *App) Analyze(ctx context.Context, path, prompt, provider string) error {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !textFileTypes[fileType] {
		return fmt.Errorf("unsupported file type %q: only .txt and .md documents are supported", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("document %s is not valid UTF-8 text", path)
	}

	result, err := a.service.Analyze(ctx, string(data), prompt, provider)
	if err != nil {
		return err
	}

	record, err := a.store.SaveDocument(ctx, storage.DocumentRecord{
		Filename:      filepath.Base(path),
		FileType:      fileType,
		FileSize:      int64(len(data)),
		ExtractedText: result.ExtractedText,
		Summary:       result.Summary,
		Analysis:      result.Analysis,
		Provider:      a.providerName(provider),
	})
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	fmt.Fprintf(a.out, "Summary:\n%s\n\n", result.Summary)
	fmt.Fprintf(a.out, "Analysis:\n%s\n", result.Analysis)
	a.logger.Info("document saved", "id", record.ID, "file", record.Filename, "degenerate", result.Degenerate())
	return nil
}
