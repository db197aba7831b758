package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/giantswarm/llm-rating-eval/internal/llm"
	"github.com/giantswarm/llm-rating-eval/internal/parser"
	"github.com/giantswarm/llm-rating-eval/internal/prompt"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

// DefaultRequestDelay is the pause after every prediction call.
const DefaultRequestDelay = time.Second

// ParseErrorExplanation prefixes the explanation of unparseable responses.
const ParseErrorExplanation = "JSON Parse Error"

// Predictor rates one review with one method.
type Predictor interface {
	Predict(ctx context.Context, review reviews.Review, method reviews.Method) (reviews.Prediction, error)
}

// PredictorConfig holds the per-call settings of an LLMPredictor.
type PredictorConfig struct {
	// Model overrides the client's default model when set.
	Model string
	// RequestDelay is slept after every call, successful or not.
	RequestDelay time.Duration
	// Sleep waits between calls; defaults to llm.Sleep.
	Sleep llm.SleepFunc
}

// LLMPredictor builds the prompt for a method, queries the LLM and parses the answer.
type LLMPredictor struct {
	client llm.Client
	config PredictorConfig
}

// NewPredictor creates an LLMPredictor.
func NewPredictor(client llm.Client, config PredictorConfig) *LLMPredictor {
	if config.Sleep == nil {
		config.Sleep = llm.Sleep
	}
	return &LLMPredictor{client: client, config: config}
}

// Predict returns a Prediction for every reachable outcome: client failures and
// unparseable output become sentinel predictions. An error is returned only
// when no request could be built for method.
func (p *LLMPredictor) Predict(ctx context.Context, review reviews.Review, method reviews.Method) (reviews.Prediction, error) {
	system, user, err := prompt.Build(method, review.Text)
	if err != nil {
		return reviews.Prediction{}, err
	}
	defer func() {
		_ = p.config.Sleep(ctx, p.config.RequestDelay)
	}()

	resp, err := p.client.ChatCompletion(ctx, llm.ChatRequest{
		Model:         p.config.Model,
		SystemMessage: system,
		UserMessage:   user,
	})
	if err != nil {
		slog.Warn("completion failed", "method", method, "error", err)
		return reviews.Failed(review, method, err.Error(), err.Error()), nil
	}

	result, err := parser.Parse(resp.Content)
	if err != nil {
		slog.Debug("unparseable model output", "method", method, "error", err)
		return reviews.Failed(review, method, ParseErrorExplanation+": "+err.Error(), resp.Content), nil
	}

	slog.Debug("prediction",
		"method", method,
		"actual", review.ActualStar,
		"predicted", result.Stars,
		"attempts", resp.Attempts,
	)

	return reviews.Prediction{
		Method:        method,
		ActualStar:    review.ActualStar,
		ReviewText:    review.Text,
		PredictedStar: result.Stars,
		Explanation:   result.Explanation,
		Reasoning:     result.Reasoning,
		RawOutput:     resp.Content,
		Valid:         true,
	}, nil
}
