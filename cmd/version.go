package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of llm-rating-eval",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "llm-rating-eval version %s\n", rootCmd.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", buildCommit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  default model: %s\n", config.DefaultModel)
		},
	}
}
