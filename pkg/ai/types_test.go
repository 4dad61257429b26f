package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScoreLine(t *testing.T) {
	cases := []struct {
		name        string
		content     string
		score       float64
		explanation string
	}{
		{
			name:        "canonical response",
			content:     "SCORE: 0.8 - Clear and complete documentation",
			score:       0.8,
			explanation: "Clear and complete documentation",
		},
		{
			name:        "score embedded in prose",
			content:     "Here is my verdict.\nSCORE: 0.4 - Missing setup instructions",
			score:       0.4,
			explanation: "Missing setup instructions",
		},
		{
			name:        "no explanation dash",
			content:     "SCORE: 1.0",
			score:       1.0,
			explanation: "LLM evaluation",
		},
		{
			name:        "clamped above one",
			content:     "SCORE: 1.5 - Overenthusiastic",
			score:       1.0,
			explanation: "Overenthusiastic",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, explanation, err := ParseScoreLine(tc.content)
			require.NoError(t, err)
			require.InDelta(t, tc.score, score, 0.001)
			require.Equal(t, tc.explanation, explanation)
		})
	}
}

func TestParseScoreLineErrors(t *testing.T) {
	_, _, err := ParseScoreLine("This README looks great.")
	require.Error(t, err)

	_, _, err = ParseScoreLine("SCORE: excellent - not a number")
	require.Error(t, err)
}
