// Package config loads runtime settings from defaults, an optional YAML file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/giantswarm/llm-rating-eval/internal/llm"
)

const (
	// EnvPrefix prefixes every environment override, e.g. LLM_RATING_MODEL.
	EnvPrefix = "LLM_RATING"
	// APIKeyEnv is the conventional credential variable.
	APIKeyEnv = "OPENROUTER_API_KEY"

	DefaultModel        = "nex-agi/deepseek-v3.1-nex-n1:free"
	DefaultTemperature  = 0.3
	DefaultMaxTokens    = 1024
	DefaultRequestDelay = time.Second
	DefaultHTTPTimeout  = 60 * time.Second
	DefaultEnvFile      = ".env"
)

// ErrMissingAPIKey is returned by Validate when no credential is configured.
var ErrMissingAPIKey = errors.New("missing API key")

// Config holds the settings for talking to the model and pacing requests.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	RequestDelay time.Duration
	Retry        llm.RetryConfig
	Concurrency  int
	HTTPTimeout  time.Duration
}

// LoadOptions locates optional configuration sources.
type LoadOptions struct {
	// ConfigFile is a YAML file; it must exist when set.
	ConfigFile string
	// EnvFile is a dotenv file; a missing file is ignored.
	EnvFile string
}

// Load reads the configuration. Sources from lowest to highest precedence:
// defaults, ConfigFile, the environment (including EnvFile entries that are
// not already set).
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	return &Config{
		BaseURL:      v.GetString("base_url"),
		APIKey:       strings.TrimSpace(v.GetString("api_key")),
		Model:        v.GetString("model"),
		Temperature:  v.GetFloat64("temperature"),
		MaxTokens:    v.GetInt("max_tokens"),
		RequestDelay: v.GetDuration("request_delay"),
		Retry: llm.RetryConfig{
			MaxAttempts:      v.GetInt("retry.max_attempts"),
			RateLimitBackoff: v.GetDuration("retry.rate_limit_backoff"),
			ErrorDelay:       v.GetDuration("retry.error_delay"),
		},
		Concurrency: v.GetInt("concurrency"),
		HTTPTimeout: v.GetDuration("http_timeout"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", llm.DefaultBaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("request_delay", DefaultRequestDelay)
	v.SetDefault("retry.max_attempts", llm.DefaultMaxAttempts)
	v.SetDefault("retry.rate_limit_backoff", llm.DefaultRateLimitBackoff)
	v.SetDefault("retry.error_delay", llm.DefaultErrorDelay)
	v.SetDefault("concurrency", 1)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: set %s in the environment or in a .env file", ErrMissingAPIKey, APIKeyEnv)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be at least 1, got %d", c.MaxTokens)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must not be negative, got %s", c.RequestDelay)
	}
	return nil
}

// ClientOptions converts the configuration into llm client options.
func (c *Config) ClientOptions() []llm.Option {
	return []llm.Option{
		llm.WithBaseURL(c.BaseURL),
		llm.WithAPIKey(c.APIKey),
		llm.WithModel(c.Model),
		llm.WithTemperature(c.Temperature),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithRetry(c.Retry),
		llm.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
	}
}
