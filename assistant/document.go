package assistant

import (
	"context"
	"unicode/utf8"

	"github.com/richinex/aide/llm"
)

// MinDocumentLength is the shortest text, in characters, worth sending to a
// provider.
const MinDocumentLength = 10

// Placeholder content returned for documents shorter than MinDocumentLength.
const (
	DegenerateSummary  = "Document appears to be empty or text extraction failed."
	DegenerateAnalysis = "Unable to analyze document."
)

// AnalysisResult holds the outputs of document analysis.
type AnalysisResult struct {
	ExtractedText string
	Summary       string
	Analysis      string
}

// Degenerate reports whether r is the placeholder result for unusable text.
// It is a success value, not a failure.
func (r AnalysisResult) Degenerate() bool {
	return r.Summary == DegenerateSummary && r.Analysis == DegenerateAnalysis
}

// Analyze summarizes and analyzes text. Text shorter than MinDocumentLength
// yields the placeholder result without contacting a provider. If either
// provider call fails, no result is returned.
func (s *Service) Analyze(ctx context.Context, text, customPrompt, provider string) (AnalysisResult, error) {
	if utf8.RuneCountInString(text) < MinDocumentLength {
		s.logger.Debug("document too short to analyze", "chars", utf8.RuneCountInString(text))
		return AnalysisResult{
			ExtractedText: text,
			Summary:       DegenerateSummary,
			Analysis:      DegenerateAnalysis,
		}, nil
	}

	p, err := s.providers.Resolve(provider)
	if err != nil {
		return AnalysisResult{}, err
	}

	s.logger.Debug("analyzing document", "provider", p.Name().String(), "chars", utf8.RuneCountInString(text))

	summary, err := p.Summarize(ctx, text, llm.DefaultSummaryLength)
	if err != nil {
		return AnalysisResult{}, err
	}

	analysis, err := p.AnalyzeDocument(ctx, text, customPrompt)
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		ExtractedText: text,
		Summary:       summary,
		Analysis:      analysis,
	}, nil
}
