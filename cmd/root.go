package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/output"
)

// ui is shared by all commands and initialised before any of them runs.
var ui = output.New()

var rootCmd = &cobra.Command{
	Use:   "llm-rating-eval",
	Short: "Predict review star ratings with an LLM and measure accuracy",
	Long: `llm-rating-eval sends review texts to an OpenAI-compatible chat endpoint
(OpenRouter by default) under three prompting methods (zero-shot, few-shot and
chain-of-thought few-shot), parses a 1-5 star prediction from each response and
reports exact, within-one and valid-rate accuracy per method.

The same prediction and evaluation functionality is exposed as MCP tools via
'llm-rating-eval serve'.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		ui.Verbose = verbose
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

var (
	buildCommit = "unknown"
	buildDate   = "unknown"
)

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo sets the commit and build date for the version command.
func SetBuildInfo(commit, date string) {
	buildCommit = commit
	buildDate = date
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "llm-rating-eval version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newMethodsCmd())

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (model, temperature, retry, ...)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load credentials from (ignored when missing)")
}
