package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL points at OpenRouter's OpenAI-compatible API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	defaultHTTPTimeout = 60 * time.Second
)

// Client abstracts an OpenAI-compatible LLM API.
type Client interface {
	// ChatCompletion sends a chat completion request and returns the response.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is a simplified chat request.
type ChatRequest struct {
	Model         string
	SystemMessage string
	UserMessage   string
	Temperature   *float64
	MaxTokens     int
}

// ChatResponse holds the result of a chat completion.
type ChatResponse struct {
	Content string
	// Attempts is the number of requests it took to get Content.
	Attempts int
}

// OpenAIClient implements Client using the OpenAI-compatible API.
// Rate limiting and transient failures are retried according to its RetryConfig.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature *float64
	maxTokens   int
	retry       RetryConfig
	sleep       SleepFunc
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		retry:   DefaultRetryConfig(),
		sleep:   Sleep,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.retry.MaxAttempts < 1 {
		cfg.retry.MaxAttempts = 1
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	config := openai.DefaultConfig(cfg.apiKey)
	config.BaseURL = cfg.baseURL
	config.HTTPClient = envelopeDoer{next: cfg.httpClient}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.model,
		temperature: cfg.temperature,
		maxTokens:   cfg.maxTokens,
		retry:       cfg.retry,
		sleep:       cfg.sleep,
	}
}

// ChatCompletion sends a non-streaming chat completion request, retrying
// rate-limited and transient failures. When every attempt fails the returned
// error is a *RetryExhaustedError wrapping the last failure.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req = c.applyDefaults(req)

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		content, err := c.complete(ctx, req)
		if err == nil {
			return &ChatResponse{Content: content, Attempts: attempt}, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("chat completion aborted: %w", ctxErr)
		}

		class := classify(err)
		if class == failurePermanent {
			return nil, err
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.retry.delay(class, attempt)
		slog.Warn("chat completion failed, retrying",
			"attempt", attempt,
			"max_attempts", c.retry.MaxAttempts,
			"rate_limited", class == failureRateLimited,
			"delay", delay,
			"error", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("chat completion aborted: %w", err)
		}
	}

	return nil, &RetryExhaustedError{Attempts: c.retry.MaxAttempts, Last: lastErr}
}

func (c *OpenAIClient) complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemMessage},
		{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
	}

	var temp float32
	if req.Temperature != nil {
		temp = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

// applyDefaults applies client-level defaults to a request where
// the request does not specify its own values.
func (c *OpenAIClient) applyDefaults(req ChatRequest) ChatRequest {
	if req.Model == "" && c.model != "" {
		req.Model = c.model
	}
	if req.Temperature == nil && c.temperature != nil {
		req.Temperature = c.temperature
	}
	if req.MaxTokens == 0 && c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}
	return req
}
