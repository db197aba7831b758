package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-rating-eval/internal/llm"
	"github.com/giantswarm/llm-rating-eval/internal/prompt"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
	"github.com/giantswarm/llm-rating-eval/internal/testutil"
)

// delayRecorder stands in for llm.Sleep and records requested delays.
type delayRecorder struct {
	delays []time.Duration
}

func (d *delayRecorder) sleep(_ context.Context, delay time.Duration) error {
	d.delays = append(d.delays, delay)
	return nil
}

func newTestPredictor(client llm.Client, rec *delayRecorder) *LLMPredictor {
	return NewPredictor(client, PredictorConfig{
		RequestDelay: time.Second,
		Sleep:        rec.sleep,
	})
}

var sampleReview = reviews.Review{ActualStar: 4, Text: "Great tacos, slow service."}

func TestPredictValidResponse(t *testing.T) {
	client := &testutil.MockLLMClient{
		DefaultResponse: `{"predicted_stars": 4, "explanation": "positive food, minor service issue"}`,
	}
	rec := &delayRecorder{}

	pred, err := newTestPredictor(client, rec).Predict(context.Background(), sampleReview, reviews.ZeroShot)
	require.NoError(t, err)

	assert.True(t, pred.Valid)
	assert.Equal(t, 4, pred.PredictedStar)
	assert.Equal(t, 4, pred.ActualStar)
	assert.Equal(t, reviews.ZeroShot, pred.Method)
	assert.Equal(t, sampleReview.Text, pred.ReviewText)
	assert.Equal(t, "positive food, minor service issue", pred.Explanation)
	assert.Equal(t, client.DefaultResponse, pred.RawOutput)
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestPredictSendsMethodPrompt(t *testing.T) {
	for _, method := range reviews.AllMethods() {
		t.Run(method.String(), func(t *testing.T) {
			client := &testutil.MockLLMClient{DefaultResponse: `{"predicted_stars": 3}`}
			p := NewPredictor(client, PredictorConfig{Model: "test-model", Sleep: (&delayRecorder{}).sleep})

			_, err := p.Predict(context.Background(), sampleReview, method)
			require.NoError(t, err)

			system, user, err := prompt.Build(method, sampleReview.Text)
			require.NoError(t, err)

			req := client.LastRequest()
			assert.Equal(t, "test-model", req.Model)
			assert.Equal(t, system, req.SystemMessage)
			assert.Equal(t, user, req.UserMessage)
		})
	}
}

func TestPredictChainOfThoughtKeepsReasoning(t *testing.T) {
	client := &testutil.MockLLMClient{
		DefaultResponse: "```json\n{\"predicted_stars\": 2, \"reasoning\": \"mostly complaints\", \"explanation\": \"bad service\"}\n```",
	}

	pred, err := newTestPredictor(client, &delayRecorder{}).Predict(context.Background(), sampleReview, reviews.ChainOfThoughtFewShot)
	require.NoError(t, err)

	assert.True(t, pred.Valid)
	assert.Equal(t, 2, pred.PredictedStar)
	assert.Equal(t, "mostly complaints", pred.Reasoning)
	assert.Equal(t, "bad service", pred.Explanation)
}

func TestPredictUnparseableResponse(t *testing.T) {
	client := &testutil.MockLLMClient{DefaultResponse: "not json"}
	rec := &delayRecorder{}

	pred, err := newTestPredictor(client, rec).Predict(context.Background(), sampleReview, reviews.FewShot)
	require.NoError(t, err)

	assert.False(t, pred.Valid)
	assert.Equal(t, reviews.SentinelStar, pred.PredictedStar)
	assert.Contains(t, pred.Explanation, "JSON Parse Error: ")
	assert.Equal(t, "not json", pred.RawOutput)
	assert.Len(t, rec.delays, 1)
}

func TestPredictOutOfRangeRating(t *testing.T) {
	client := &testutil.MockLLMClient{DefaultResponse: `{"predicted_stars": 7, "explanation": "off the scale"}`}

	pred, err := newTestPredictor(client, &delayRecorder{}).Predict(context.Background(), sampleReview, reviews.ZeroShot)
	require.NoError(t, err)

	assert.False(t, pred.Valid)
	assert.Equal(t, reviews.SentinelStar, pred.PredictedStar)
}

func TestPredictClientFailure(t *testing.T) {
	client := &testutil.MockLLMClient{
		Err: &llm.RetryExhaustedError{Attempts: 5, Last: errors.New("503 upstream")},
	}
	rec := &delayRecorder{}

	pred, err := newTestPredictor(client, rec).Predict(context.Background(), sampleReview, reviews.ZeroShot)
	require.NoError(t, err)

	assert.False(t, pred.Valid)
	assert.Equal(t, reviews.SentinelStar, pred.PredictedStar)
	assert.Equal(t, "API Error: giving up after 5 attempts: 503 upstream", pred.Explanation)
	assert.Equal(t, pred.Explanation, pred.RawOutput)
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestPredictUnknownMethod(t *testing.T) {
	client := &testutil.MockLLMClient{}
	rec := &delayRecorder{}

	_, err := newTestPredictor(client, rec).Predict(context.Background(), sampleReview, reviews.Method(9))
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrUnknownMethod)
	assert.Equal(t, 0, client.Calls())
	assert.Empty(t, rec.delays)
}

func TestPredictEchoPreservesReview(t *testing.T) {
	review := reviews.Review{
		ActualStar: 1,
		Text:       "They said \"fresh\" but\nthe fish smelled. Never again!",
	}

	pred, err := newTestPredictor(testutil.EchoClient{}, &delayRecorder{}).Predict(context.Background(), review, reviews.ZeroShot)
	require.NoError(t, err)

	assert.False(t, pred.Valid)
	assert.Contains(t, pred.RawOutput, review.Text)
	assert.Contains(t, pred.Explanation, "JSON Parse Error")
}

func TestPredictRetriesRateLimitThroughClient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","code":429}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"predicted_stars\": 4, \"explanation\": \"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	backoff := &delayRecorder{}
	client := llm.NewOpenAIClient(
		llm.WithBaseURL(srv.URL),
		llm.WithAPIKey("test"),
		llm.WithHTTPClient(srv.Client()),
		llm.WithSleeper(backoff.sleep),
	)

	pred, err := newTestPredictor(client, &delayRecorder{}).Predict(context.Background(), sampleReview, reviews.ZeroShot)
	require.NoError(t, err)

	assert.True(t, pred.Valid)
	assert.Equal(t, 4, pred.PredictedStar)
	assert.Equal(t, 3, calls)
	require.Len(t, backoff.delays, 2)
	assert.Less(t, backoff.delays[0], backoff.delays[1])
}
