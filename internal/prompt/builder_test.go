package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

func TestExamplesBalanced(t *testing.T) {
	examples := Examples()
	require.Len(t, examples, 15)

	perStar := map[int]int{}
	for _, ex := range examples {
		assert.NotEmpty(t, ex.Text)
		perStar[ex.Stars]++
	}
	assert.Equal(t, map[int]int{1: 3, 2: 3, 3: 3, 4: 3, 5: 3}, perStar)
}

func TestExamplesReturnsCopy(t *testing.T) {
	examples := Examples()
	examples[0].Text = "mutated"
	assert.NotEqual(t, "mutated", Examples()[0].Text)
}

func TestBuildZeroShot(t *testing.T) {
	system, user, err := Build(reviews.ZeroShot, "Great tacos")
	require.NoError(t, err)

	assert.Equal(t, RolePrompt, system)
	assert.Contains(t, system, `{"predicted_stars": N, "explanation"`)
	assert.Contains(t, user, `Review: "Great tacos"`)
	assert.NotContains(t, user, "reasoning")
}

func TestBuildFewShot(t *testing.T) {
	system, user, err := Build(reviews.FewShot, "Great tacos")
	require.NoError(t, err)

	assert.Contains(t, system, RolePrompt)
	assert.Contains(t, system, "[1-star example]")
	assert.Contains(t, system, "[5-star example]")
	assert.Contains(t, system, "Pizzeria Bianco")
	assert.NotContains(t, system, "CHAIN OF THOUGHT")
	assert.Contains(t, user, "Now analyze this new review")
}

func TestBuildChainOfThought(t *testing.T) {
	system, user, err := Build(reviews.ChainOfThoughtFewShot, "Great tacos")
	require.NoError(t, err)

	assert.Contains(t, system, RolePrompt)
	assert.Contains(t, system, "[3-star example]")
	assert.Contains(t, system, "1. OVERALL SENTIMENT")
	assert.Contains(t, system, "4. SEVERITY ASSESSMENT")
	assert.Contains(t, system, "5. RATING CRITERIA")
	assert.Contains(t, user, `"reasoning"`)
}

func TestBuildMethodsDiffer(t *testing.T) {
	seen := map[string]reviews.Method{}
	for _, m := range reviews.AllMethods() {
		system, _, err := Build(m, "x")
		require.NoError(t, err)
		_, dup := seen[system]
		assert.False(t, dup, "method %s shares a system prompt", m)
		seen[system] = m
	}
}

func TestBuildKeepsReviewVerbatim(t *testing.T) {
	review := "He said \"never again\".\nSecond line with 100% {braces}"
	for _, m := range reviews.AllMethods() {
		_, user, err := Build(m, review)
		require.NoError(t, err)
		assert.Contains(t, user, review)
	}
}

func TestBuildUnknownMethod(t *testing.T) {
	_, _, err := Build(reviews.Method(7), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}
