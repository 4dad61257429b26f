package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Completer is a hosted LLM capable of answering a single-turn prompt with
// free text. Quality checks expect the text to contain a line of the shape
// "SCORE: <float> - <explanation>".
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ParseScoreLine extracts the score and explanation from a model response of
// the form "SCORE: 0.8 - explanation". The score is clamped to [0,1]. An
// error means the response did not follow the contract; callers degrade to a
// neutral score rather than failing the check.
func ParseScoreLine(content string) (float64, string, error) {
	_, after, found := strings.Cut(content, "SCORE:")
	if !found {
		return 0, "", fmt.Errorf("response does not contain a SCORE line")
	}

	after = strings.TrimSpace(after)
	scorePart, explanation, hasDash := strings.Cut(after, "-")
	if !hasDash {
		explanation = "LLM evaluation"
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(scorePart), 64)
	if err != nil {
		return 0, "", fmt.Errorf("unparsable score %q: %w", strings.TrimSpace(scorePart), err)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, strings.TrimSpace(explanation), nil
}
