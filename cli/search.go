package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/richinex/aide/assistant"
	"github.com/richinex/aide/internal/json"
)

// hitsEnvelope is the object form of a hits payload.
type hitsEnvelope struct {
	Results []assistant.SearchHit `json:"results"`
	Hits    []assistant.SearchHit `json:"hits"`
}

// Search summarizes the search hits read from hitsPath ("-" for stdin)
// and prints the digest.
func (a *App) Search(ctx context.Context, query, hitsPath, provider string) error {
	hits, err := a.readHits(hitsPath)
	if err != nil {
		return err
	}

	digest, err := a.service.Digest(ctx, query, hits, provider)
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, digest.String())
	return nil
}

func (a *App) readHits(path string) ([]assistant.SearchHit, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search hits: %w", err)
	}

	return decodeHits(string(data))
}

// decodeHits accepts a JSON array of hits or an object carrying them under
// "results" or "hits", optionally fenced or surrounded by text.
func decodeHits(text string) ([]assistant.SearchHit, error) {
	if hits, err := json.Decode[[]assistant.SearchHit](text); err == nil {
		return hits, nil
	}

	env, err := json.Decode[hitsEnvelope](text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode search hits: %w", err)
	}
	if env.Results != nil {
		return env.Results, nil
	}
	return env.Hits, nil
}
