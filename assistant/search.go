package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/aide/llm"
)

const (
	searchSystemPrompt = "You are a helpful assistant that summarizes web search results."
	searchInstruction  = "Please provide a concise summary of these search results:"
	searchTemperature  = 0.3
)

// SearchHit is one web search result, as supplied by the search collaborator.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchDigest pairs ordered hits with a generated summary.
type SearchDigest struct {
	Query   string
	Hits    []SearchHit
	Summary string
}

// String renders the digest as numbered hits followed by the summary.
func (d SearchDigest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", d.Query)
	for i, hit := range d.Hits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, hit.Title)
		fmt.Fprintf(&b, "   URL: %s\n", hit.URL)
		if hit.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", hit.Snippet)
		}
		b.WriteString("\n")
	}
	if d.Summary != "" {
		fmt.Fprintf(&b, "Summary:\n%s\n", d.Summary)
	}
	return b.String()
}

// BuildSearchContext renders hits, in order, as the prompt context block.
func BuildSearchContext(query string, hits []SearchHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for '%s':\n\n", query)
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, hit.Title)
		fmt.Fprintf(&b, "   %s\n\n", hit.Snippet)
	}
	return b.String()
}

// SummarizeSearch asks the provider for a concise summary of hits and
// returns its reply verbatim. Hits are neither reordered nor deduplicated.
func (s *Service) SummarizeSearch(ctx context.Context, query string, hits []SearchHit, provider string) (string, error) {
	p, err := s.providers.Resolve(provider)
	if err != nil {
		return "", err
	}

	messages := []llm.ChatMessage{
		llm.SystemMessage(searchSystemPrompt),
		llm.UserMessage(fmt.Sprintf("%s\n\n%s", searchInstruction, BuildSearchContext(query, hits))),
	}

	params := s.chatParams
	params.Temperature = searchTemperature

	s.logger.Debug("summarizing search", "provider", p.Name().String(), "query", query, "hits", len(hits))
	return p.Chat(ctx, messages, params)
}

// Digest summarizes hits and packages them with the summary.
func (s *Service) Digest(ctx context.Context, query string, hits []SearchHit, provider string) (SearchDigest, error) {
	summary, err := s.SummarizeSearch(ctx, query, hits, provider)
	if err != nil {
		return SearchDigest{}, err
	}
	return SearchDigest{
		Query:   query,
		Hits:    hits,
		Summary: summary,
	}, nil
}
