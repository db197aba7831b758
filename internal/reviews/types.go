package reviews

import (
	"fmt"
	"strconv"
	"strings"
)

// SentinelStar marks a prediction that could not be obtained or parsed.
const SentinelStar = -1

// Review is a single labelled input row. Reviews are not mutated after loading.
type Review struct {
	ActualStar int
	Text       string
}

// Method identifies one of the fixed prompting strategies.
type Method int

const (
	ZeroShot              Method = 1
	FewShot               Method = 2
	ChainOfThoughtFewShot Method = 3
)

var methodNames = map[Method]string{
	ZeroShot:              "zero_shot",
	FewShot:               "few_shot",
	ChainOfThoughtFewShot: "cot_few_shot",
}

// AllMethods returns every method in evaluation order.
func AllMethods() []Method {
	return []Method{ZeroShot, FewShot, ChainOfThoughtFewShot}
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether m is one of the enumerated methods.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod accepts either the numeric id ("2") or the name ("few_shot").
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if id, err := strconv.Atoi(s); err == nil {
		if m := Method(id); m.Valid() {
			return m, nil
		}
		return 0, &UnknownMethodError{Value: s}
	}
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, &UnknownMethodError{Value: s}
}

// UnknownMethodError is returned when a method id or name is not recognised.
type UnknownMethodError struct {
	Value string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q (expected 1, 2, 3, zero_shot, few_shot or cot_few_shot)", e.Value)
}

// Prediction is the outcome of evaluating one review with one method.
// PredictedStar is in [1,5] when Valid is true and SentinelStar otherwise.
type Prediction struct {
	Method        Method `json:"method_id"`
	ActualStar    int    `json:"star"`
	ReviewText    string `json:"review"`
	PredictedStar int    `json:"predicted_star"`
	Explanation   string `json:"explanation"`
	Reasoning     string `json:"reasoning,omitempty"`
	RawOutput     string `json:"raw_llm_output"`
	Valid         bool   `json:"valid"`
}

// Failed builds a sentinel prediction for review and method.
func Failed(review Review, method Method, explanation, raw string) Prediction {
	return Prediction{
		Method:        method,
		ActualStar:    review.ActualStar,
		ReviewText:    review.Text,
		PredictedStar: SentinelStar,
		Explanation:   explanation,
		RawOutput:     raw,
		Valid:         false,
	}
}
