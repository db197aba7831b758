package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultMaxAttempts      = 5
	DefaultRateLimitBackoff = 5 * time.Second
	DefaultErrorDelay       = 2 * time.Second
)

// RetryConfig controls how failed completions are retried.
type RetryConfig struct {
	// MaxAttempts is the total number of requests made before giving up.
	MaxAttempts int
	// RateLimitBackoff is multiplied by the attempt number after a 429.
	RateLimitBackoff time.Duration
	// ErrorDelay is the fixed wait after any other transient failure.
	ErrorDelay time.Duration
}

// DefaultRetryConfig returns the production retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      DefaultMaxAttempts,
		RateLimitBackoff: DefaultRateLimitBackoff,
		ErrorDelay:       DefaultErrorDelay,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type failureClass int

const (
	failureTransient failureClass = iota
	failureRateLimited
	failurePermanent
)

func (c RetryConfig) delay(class failureClass, attempt int) time.Duration {
	if class == failureRateLimited {
		return c.RateLimitBackoff * time.Duration(attempt)
	}
	return c.ErrorDelay
}

// classify decides whether err is worth another attempt. Errors without an
// HTTP status (network failures, empty responses) are transient.
func classify(err error) failureClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Code == http.StatusTooManyRequests {
			return failureRateLimited
		}
		return failureTransient
	}

	status := statusCode(err)
	switch {
	case status == http.StatusTooManyRequests:
		return failureRateLimited
	case status == http.StatusRequestTimeout:
		return failureTransient
	case status >= 400 && status < 500:
		return failurePermanent
	default:
		return failureTransient
	}
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// IsRateLimited reports whether err is a rate-limit response from the provider.
func IsRateLimited(err error) bool {
	return classify(err) == failureRateLimited
}
