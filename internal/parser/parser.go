// Package parser extracts a star rating prediction from free-form model output.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	// RatingKey is the field the prompts ask the model to fill in.
	RatingKey = "predicted_stars"
	// LegacyRatingKey is accepted when RatingKey is absent.
	LegacyRatingKey = "predicted_star"

	excerptLen = 100
)

// Result is a successfully parsed prediction.
type Result struct {
	Stars       int
	Explanation string
	Reasoning   string
}

// ParseError describes why no usable prediction was found.
type ParseError struct {
	Reason  string
	Excerpt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Excerpt)
}

// Strategy tries to decode a JSON object out of raw model text.
type Strategy func(raw string) (map[string]any, bool)

// Chain composes strategies left to right and returns the first object found.
func Chain(strategies ...Strategy) Strategy {
	return func(raw string) (map[string]any, bool) {
		for _, s := range strategies {
			if obj, ok := s(raw); ok {
				return obj, true
			}
		}
		return nil, false
	}
}

var defaultChain = Chain(Direct, Fenced, Embedded)

// Parse extracts the rating, explanation and optional reasoning from raw.
func Parse(raw string) (Result, error) {
	obj, ok := defaultChain(raw)
	if !ok {
		return Result{}, &ParseError{Reason: "no JSON object found", Excerpt: excerpt(raw)}
	}
	return fromObject(obj, raw)
}

// Direct decodes the trimmed text as a JSON object.
func Direct(raw string) (map[string]any, bool) {
	return decodeObject(strings.TrimSpace(raw))
}

var fencedObject = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(\\{.*?\\})\\s*```")

// Fenced decodes the first object inside a markdown code fence, wherever the
// fence sits in the text.
func Fenced(raw string) (map[string]any, bool) {
	for _, m := range fencedObject.FindAllStringSubmatch(raw, -1) {
		if obj, ok := decodeObject(m[1]); ok {
			return obj, true
		}
	}
	return nil, false
}

var embeddedObject = regexp.MustCompile(`\{[^{}]*"` + LegacyRatingKey + `s?"[^{}]*\}`)

// Embedded locates a flat object mentioning the rating key anywhere in the text.
func Embedded(raw string) (map[string]any, bool) {
	for _, candidate := range embeddedObject.FindAllString(raw, -1) {
		if obj, ok := decodeObject(candidate); ok {
			return obj, true
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func fromObject(obj map[string]any, raw string) (Result, error) {
	value, ok := obj[RatingKey]
	if !ok {
		value, ok = obj[LegacyRatingKey]
	}
	if !ok {
		return Result{}, &ParseError{Reason: "missing " + RatingKey, Excerpt: excerpt(raw)}
	}

	num, ok := value.(float64)
	if !ok {
		return Result{}, &ParseError{Reason: fmt.Sprintf("non-numeric %s %v", RatingKey, value), Excerpt: excerpt(raw)}
	}
	stars := int(num)
	if stars < 1 || stars > 5 {
		return Result{}, &ParseError{Reason: fmt.Sprintf("%s %d out of range 1-5", RatingKey, stars), Excerpt: excerpt(raw)}
	}

	return Result{
		Stars:       stars,
		Explanation: stringField(obj, "explanation"),
		Reasoning:   stringField(obj, "reasoning"),
	}, nil
}

// stringField returns obj[key] as text. Non-string values are re-encoded as JSON
// so structured reasoning is not lost.
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func excerpt(raw string) string {
	r := []rune(raw)
	if len(r) <= excerptLen {
		return raw
	}
	return string(r[:excerptLen]) + "..."
}
