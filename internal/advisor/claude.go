package advisor

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider implements the Provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(model string) (*ClaudeProvider, error) {
	apiKey := os.Getenv("FLOWSCOUT_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("FLOWSCOUT_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
	}, nil
}

// SuggestAdvance asks Claude for the control that advances the step
func (p *ClaudeProvider) SuggestAdvance(ctx context.Context, page PageMap) (Suggestion, error) {
	userPrompt, err := buildUserPrompt(page)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to marshal page map: %w", err)
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return Suggestion{}, fmt.Errorf("empty response from Claude")
	}

	s, err := parseSuggestion(responseText)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse Claude response as JSON: %w\nResponse: %s", err, responseText)
	}
	return s, nil
}
