package llm

import (
	"net/http"
)

// Float64Ptr returns a pointer to the given float64 value.
// Useful for constructing ChatRequest with an explicit temperature.
func Float64Ptr(v float64) *float64 {
	return &v
}

// clientConfig holds configuration for an LLM client.
type clientConfig struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	maxTokens   int
	retry       RetryConfig
	httpClient  *http.Client
	sleep       SleepFunc
}

// Option is a functional option for configuring an LLM client.
type Option func(*clientConfig)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithModel sets the default model name for requests.
// Per-request model settings in ChatRequest take precedence.
func WithModel(model string) Option {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithTemperature sets the default temperature for requests.
// Per-request temperature settings in ChatRequest take precedence.
func WithTemperature(temp float64) Option {
	return func(c *clientConfig) {
		c.temperature = &temp
	}
}

// WithMaxTokens sets the default completion token budget.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) {
		c.maxTokens = n
	}
}

// WithRetry replaces the retry policy.
func WithRetry(r RetryConfig) Option {
	return func(c *clientConfig) {
		c.retry = r
	}
}

// WithHTTPClient sets the underlying HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithSleeper replaces the function used to wait between attempts.
func WithSleeper(fn SleepFunc) Option {
	return func(c *clientConfig) {
		c.sleep = fn
	}
}
