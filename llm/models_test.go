package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateMessages(t *testing.T) {
	valid := [][]ChatMessage{
		{UserMessage("hi")},
		{SystemMessage("sys"), UserMessage("hi")},
		{UserMessage("hi"), AssistantMessage("hello"), UserMessage("bye")},
	}
	for i, messages := range valid {
		if err := ValidateMessages(messages); err != nil {
			t.Errorf("case %d: unexpected error: %v", i, err)
		}
	}

	invalid := map[string][]ChatMessage{
		"empty":        nil,
		"unknown role": {{Role: "tool", Content: "x"}},
		"two systems":  {SystemMessage("a"), SystemMessage("b"), UserMessage("hi")},
	}
	for name, messages := range invalid {
		if err := ValidateMessages(messages); !errors.Is(err, ErrInvalidMessages) {
			t.Errorf("%s: expected ErrInvalidMessages, got %v", name, err)
		}
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]ChatMessage{
		SystemMessage("rules"),
		UserMessage("a"),
		AssistantMessage("b"),
	})
	if system != "rules" {
		t.Errorf("expected system 'rules', got %q", system)
	}
	if len(turns) != 2 || turns[0].Content != "a" || turns[1].Content != "b" {
		t.Errorf("unexpected turns: %+v", turns)
	}
}

func TestChatParametersDefaults(t *testing.T) {
	params := ChatParameters{Temperature: -1}.withDefaults()
	if params.Temperature != 0 {
		t.Errorf("expected negative temperature clamped to 0, got %v", params.Temperature)
	}
	if params.MaxTokens != 2000 {
		t.Errorf("expected default max tokens, got %d", params.MaxTokens)
	}

	kept := ChatParameters{Temperature: 0, MaxTokens: 10}.withDefaults()
	if kept.Temperature != 0 || kept.MaxTokens != 10 {
		t.Errorf("explicit values should be kept, got %+v", kept)
	}
}

func TestAnalysisRequest(t *testing.T) {
	messages, params := analysisRequest(analysisSystemPrompt, "the text", "")
	if len(messages) != 2 || messages[0].Role != RoleSystem {
		t.Fatalf("expected system + user, got %+v", messages)
	}
	if messages[1].Content != DefaultAnalysisPrompt+"\n\nthe text" {
		t.Errorf("unexpected user turn: %q", messages[1].Content)
	}
	if params.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", params.Temperature)
	}

	messages, _ = analysisRequest("", "the text", "List the risks:")
	if len(messages) != 1 || !strings.HasPrefix(messages[0].Content, "List the risks:") {
		t.Errorf("expected custom prompt without system turn, got %+v", messages)
	}
}

func TestSummaryRequest(t *testing.T) {
	messages, params := summaryRequest("", "body", 0)
	if params.MaxTokens != 400 {
		t.Errorf("expected 400 tokens for default length, got %d", params.MaxTokens)
	}
	if !strings.HasPrefix(messages[0].Content, "Summarize the following text in approximately 200 words:") {
		t.Errorf("unexpected prompt: %q", messages[0].Content)
	}

	_, params = summaryRequest("", "body", 75)
	if params.MaxTokens != 150 {
		t.Errorf("expected 150 tokens, got %d", params.MaxTokens)
	}
}
