package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		want     Suggestion
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"selector": "#next", "reason": "continue button"}`,
			want:     Suggestion{Selector: "#next", Reason: "continue button"},
		},
		{
			name:     "wrapped in prose",
			response: "Sure, here you go:\n```json\n{\"selector\": \"button.go\"}\n```",
			want:     Suggestion{Selector: "button.go"},
		},
		{
			name:     "braces inside strings",
			response: `answer {"selector": "a[data-x=\"}\"]", "reason": "odd {label}"} done`,
			want:     Suggestion{Selector: `a[data-x="}"]`, Reason: "odd {label}"},
		},
		{
			name:     "empty pick",
			response: `{"selector": ""}`,
			want:     Suggestion{},
		},
		{
			name:     "no json",
			response: "I cannot tell",
			wantErr:  true,
		},
		{
			name:     "unterminated",
			response: `{"selector": "#a"`,
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSuggestion(tc.response)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("gemini", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("FLOWSCOUT_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewProvider("claude", "")
	require.Error(t, err)

	t.Setenv("FLOWSCOUT_OPENAI_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	_, err = NewProvider("openai", "")
	require.Error(t, err)
}
