package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		stars       int
		explanation string
		reasoning   string
	}{
		{
			name:        "clean json",
			input:       `{"predicted_stars": 4, "explanation": "good food"}`,
			stars:       4,
			explanation: "good food",
		},
		{
			name:        "surrounding whitespace",
			input:       "\n  {\"predicted_stars\": 2, \"explanation\": \"slow\"}  \n",
			stars:       2,
			explanation: "slow",
		},
		{
			name:        "json fence",
			input:       "```json\n{\"predicted_stars\": 5, \"explanation\": \"loved it\"}\n```",
			stars:       5,
			explanation: "loved it",
		},
		{
			name:        "bare fence",
			input:       "```\n{\"predicted_stars\": 1, \"explanation\": \"awful\"}\n```",
			stars:       1,
			explanation: "awful",
		},
		{
			name:        "prose before fence with nested object",
			input:       "Here is my analysis:\n```json\n{\"predicted_stars\": 4, \"reasoning\": {\"sentiment\": \"positive\"}, \"explanation\": \"tasty\"}\n```",
			stars:       4,
			explanation: "tasty",
			reasoning:   `{"sentiment":"positive"}`,
		},
		{
			name:        "fence followed by prose",
			input:       "```json\n{\"predicted_stars\": 2, \"reasoning\": {\"service\": \"slow\"}, \"explanation\": \"meh\"}\n```\nHope this helps!",
			stars:       2,
			explanation: "meh",
			reasoning:   `{"service":"slow"}`,
		},
		{
			name:        "embedded in prose",
			input:       "Sure! Here is my answer: {\"predicted_stars\": 3, \"explanation\": \"mixed\"} Hope it helps.",
			stars:       3,
			explanation: "mixed",
		},
		{
			name:        "legacy key",
			input:       `{"predicted_star": 2, "explanation": "meh"}`,
			stars:       2,
			explanation: "meh",
		},
		{
			name:        "legacy key embedded",
			input:       `Result: {"predicted_star": 5}`,
			stars:       5,
		},
		{
			name:        "canonical key wins",
			input:       `{"predicted_star": 2, "predicted_stars": 4}`,
			stars:       4,
		},
		{
			name:        "float rating truncated",
			input:       `{"predicted_stars": 4.0, "explanation": "x"}`,
			stars:       4,
			explanation: "x",
		},
		{
			name:        "with reasoning",
			input:       `{"predicted_stars": 3, "reasoning": "1. mixed 2. ok", "explanation": "average"}`,
			stars:       3,
			explanation: "average",
			reasoning:   "1. mixed 2. ok",
		},
		{
			name:      "structured reasoning kept as json",
			input:     `{"predicted_stars": 3, "reasoning": {"sentiment": "mixed"}}`,
			stars:     3,
			reasoning: `{"sentiment":"mixed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.stars, res.Stars)
			assert.Equal(t, tt.explanation, res.Explanation)
			assert.Equal(t, tt.reasoning, res.Reasoning)
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"not json", "not json", "no JSON object found"},
		{"empty", "", "no JSON object found"},
		{"array", `[1, 2, 3]`, "no JSON object found"},
		{"missing key", `{"rating": 4}`, "missing predicted_stars"},
		{"string rating", `{"predicted_stars": "4"}`, "non-numeric"},
		{"bool rating", `{"predicted_stars": true}`, "non-numeric"},
		{"null rating", `{"predicted_stars": null}`, "non-numeric"},
		{"zero", `{"predicted_stars": 0}`, "out of range"},
		{"too high", `{"predicted_stars": 6}`, "out of range"},
		{"broken embedded object", `answer: {"predicted_stars": 4, "explanation": }`, "no JSON object found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Contains(t, pe.Reason, tt.reason)
		})
	}
}

func TestParseErrorExcerptTruncated(t *testing.T) {
	raw := strings.Repeat("é", 250)
	_, err := Parse(raw)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, strings.Repeat("é", 100)+"...", pe.Excerpt)
}

func TestParseFencedMatchesClean(t *testing.T) {
	clean := `{"predicted_stars": 4, "explanation": "solid", "reasoning": "steps"}`
	fenced := "```json\n" + clean + "\n```"

	a, errA := Parse(clean)
	b, errB := Parse(fenced)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestStrategiesIndependently(t *testing.T) {
	clean := `{"predicted_stars": 4}`

	_, ok := Direct(clean)
	assert.True(t, ok)
	_, ok = Direct("```json\n" + clean + "\n```")
	assert.False(t, ok)

	_, ok = Fenced(clean)
	assert.False(t, ok, "fenced strategy only handles fenced text")
	_, ok = Fenced("```json\n" + clean + "\n```")
	assert.True(t, ok)

	_, ok = Embedded("prefix " + clean + " suffix")
	assert.True(t, ok)
	_, ok = Embedded(`prefix {"other": 1} suffix`)
	assert.False(t, ok)
}

func TestChainShortCircuits(t *testing.T) {
	var calls []string
	first := func(string) (map[string]any, bool) {
		calls = append(calls, "first")
		return map[string]any{"predicted_stars": 1.0}, true
	}
	second := func(string) (map[string]any, bool) {
		calls = append(calls, "second")
		return nil, false
	}

	obj, ok := Chain(first, second)("anything")
	require.True(t, ok)
	assert.Equal(t, 1.0, obj["predicted_stars"])
	assert.Equal(t, []string{"first"}, calls)
}

func TestChainEmpty(t *testing.T) {
	_, ok := Chain()("{}")
	assert.False(t, ok)
}
