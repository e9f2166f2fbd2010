// Document task prompts shared by all providers.

package llm

import "fmt"

// DefaultAnalysisPrompt is used by AnalyzeDocument when no prompt is given.
const DefaultAnalysisPrompt = "Analyze the following document and provide key insights:"

// DefaultSummaryLength is the target summary length in words.
const DefaultSummaryLength = 200

const (
	// documentTaskTemperature applies to both analysis and summarization.
	documentTaskTemperature = 0.3

	// summaryTokensPerWord sizes the token budget of a summary.
	summaryTokensPerWord = 2

	analysisSystemPrompt = "You are a helpful document analysis assistant."
	summarySystemPrompt  = "You are a helpful summarization assistant."
)

// analysisRequest builds the messages and parameters for AnalyzeDocument.
// system is omitted when empty.
func analysisRequest(system, text, prompt string) ([]ChatMessage, ChatParameters) {
	if prompt == "" {
		prompt = DefaultAnalysisPrompt
	}

	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, SystemMessage(system))
	}
	messages = append(messages, UserMessage(fmt.Sprintf("%s\n\n%s", prompt, text)))

	params := DefaultChatParameters()
	params.Temperature = documentTaskTemperature
	return messages, params
}

// summaryRequest builds the messages and parameters for Summarize.
func summaryRequest(system, text string, maxLength int) ([]ChatMessage, ChatParameters) {
	if maxLength <= 0 {
		maxLength = DefaultSummaryLength
	}

	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, SystemMessage(system))
	}
	messages = append(messages, UserMessage(
		fmt.Sprintf("Summarize the following text in approximately %d words:\n\n%s", maxLength, text),
	))

	return messages, ChatParameters{
		Temperature: documentTaskTemperature,
		MaxTokens:   uint32(maxLength * summaryTokensPerWord),
	}
}
