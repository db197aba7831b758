package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/config"
	"github.com/giantswarm/llm-rating-eval/internal/llm"
	"github.com/giantswarm/llm-rating-eval/internal/runner"
)

// loadConfig reads and validates the configuration selected by the global flags.
// A missing credential is reported as config.ErrMissingAPIKey.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newPredictorFromConfig creates the LLM client and the predictor on top of it.
func newPredictorFromConfig(cfg *config.Config) *runner.LLMPredictor {
	client := llm.NewOpenAIClient(cfg.ClientOptions()...)
	return runner.NewPredictor(client, runner.PredictorConfig{
		Model:        cfg.Model,
		RequestDelay: cfg.RequestDelay,
	})
}
