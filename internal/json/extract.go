// Package json extracts JSON payloads from loosely formatted text.
//
// Search collaborators and LLM tools often wrap their JSON output in
// markdown fences or surround it with commentary. Decode accepts all of:
// 1. A pure JSON object or array
// 2. JSON wrapped in a markdown code block (```json ... ```)
// 3. A JSON object or array embedded in text
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extract finds and returns the JSON portion of text.
//
// Limitations:
// - Uses simple bracket matching, not full JSON parsing
// - May fail if brackets appear in strings or are unbalanced
func extract(text string) (string, error) {
	text = stripMarkdownCodeBlocks(text)

	if json.Valid([]byte(text)) {
		return text, nil
	}

	// Whichever opening bracket comes first decides the payload shape.
	for _, pair := range orderedPairs(text) {
		start := strings.IndexByte(text, pair[0])
		end := strings.LastIndexByte(text, pair[1])
		if start == -1 || end <= start {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	preview := text
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON: %q", preview)
}

func orderedPairs(text string) [][2]byte {
	object := [2]byte{'{', '}'}
	array := [2]byte{'[', ']'}

	o := strings.IndexByte(text, '{')
	a := strings.IndexByte(text, '[')
	if a != -1 && (o == -1 || a < o) {
		return [][2]byte{array, object}
	}
	return [][2]byte{object, array}
}

// stripMarkdownCodeBlocks removes markdown code block markers.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// Decode extracts the JSON payload from text and unmarshals it into T.
func Decode[T any](text string) (T, error) {
	var result T
	payload, err := extract(text)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
