package advisor

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface using OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(model string) (*OpenAIProvider, error) {
	apiKey := os.Getenv("FLOWSCOUT_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("FLOWSCOUT_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	client := openai.NewClient(apiKey)

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client: client,
		model:  model,
	}, nil
}

// SuggestAdvance asks OpenAI for the control that advances the step
func (p *OpenAIProvider) SuggestAdvance(ctx context.Context, page PageMap) (Suggestion, error) {
	userPrompt, err := buildUserPrompt(page)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to marshal page map: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
			MaxTokens: 256,
		},
	)
	if err != nil {
		return Suggestion{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content
	s, err := parseSuggestion(responseText)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse OpenAI response as JSON: %w\nResponse: %s", err, responseText)
	}
	return s, nil
}
