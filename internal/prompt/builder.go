// Package prompt builds the system and user prompts for each rating method.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

// ErrUnknownMethod is returned by Build for methods outside the fixed set.
var ErrUnknownMethod = errors.New("unknown rating method")

// Example is one labelled calibration review.
type Example struct {
	Stars int    `yaml:"stars"`
	Text  string `yaml:"text"`
}

//go:embed examples.yaml
var examplesYAML []byte

var (
	calibration  []Example
	examplesText string
)

func init() {
	var doc struct {
		Examples []Example `yaml:"examples"`
	}
	if err := yaml.Unmarshal(examplesYAML, &doc); err != nil {
		panic(fmt.Sprintf("prompt: invalid embedded examples: %v", err))
	}
	calibration = doc.Examples
	examplesText = formatExamples(calibration)
}

// Examples returns a copy of the calibration set used by the few-shot methods.
func Examples() []Example {
	out := make([]Example, len(calibration))
	copy(out, calibration)
	return out
}

func formatExamples(examples []Example) string {
	var b strings.Builder
	for _, ex := range examples {
		unit := "stars"
		if ex.Stars == 1 {
			unit = "star"
		}
		fmt.Fprintf(&b, "\n[%d-star example]: %q → %d %s\n", ex.Stars, ex.Text, ex.Stars, unit)
	}
	return b.String()
}

// Build returns the system and user prompt for rating review with method.
// The review text is embedded verbatim.
func Build(method reviews.Method, review string) (system, user string, err error) {
	switch method {
	case reviews.ZeroShot:
		system = RolePrompt
		user = fmt.Sprintf(zeroShotUser, review)
	case reviews.FewShot:
		system = RolePrompt + "\n\n" + fewShotIntro + "\n" + examplesText
		user = fmt.Sprintf(fewShotUser, review)
	case reviews.ChainOfThoughtFewShot:
		system = RolePrompt + "\n\n" + cotIntro + "\n" + examplesText + "\n" + ReasoningRubric
		user = fmt.Sprintf(cotUser, review)
	default:
		return "", "", fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}
	return system, user, nil
}
