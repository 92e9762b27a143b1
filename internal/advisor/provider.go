// Package advisor asks a language model which control advances a booking
// step when the heuristics find none.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Control is one clickable element offered to the model
type Control struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Tag      string `json:"tag"`
}

// PageMap is the step the model is asked about
type PageMap struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	StepType string    `json:"stepType"`
	Controls []Control `json:"controls"`
}

// Suggestion is the model's pick; an empty Selector means it found nothing
type Suggestion struct {
	Selector string `json:"selector"`
	Reason   string `json:"reason,omitempty"`
}

// Provider defines the interface for stuck-step suggestions
type Provider interface {
	SuggestAdvance(ctx context.Context, page PageMap) (Suggestion, error)
}

// NewProvider creates a new provider based on the provider name
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// parseSuggestion extracts and parses a JSON object from a response that
// may contain surrounding text
func parseSuggestion(response string) (Suggestion, error) {
	var s Suggestion
	if err := json.Unmarshal([]byte(response), &s); err == nil {
		return s, nil
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return Suggestion{}, fmt.Errorf("no JSON object found in response")
	}
	depth, end := 0, -1
	inString, escaped := false, false
	for i := start; i < len(response) && end == -1; i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}
	if end == -1 {
		return Suggestion{}, fmt.Errorf("no matching closing brace found")
	}
	if err := json.Unmarshal([]byte(response[start:end]), &s); err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return s, nil
}
