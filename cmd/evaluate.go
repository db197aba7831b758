package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/evaluator"
	"github.com/giantswarm/llm-rating-eval/internal/output"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <predictions.csv>",
		Short: "Recompute accuracy from a saved predictions CSV",
		Long: `Re-read a predictions.csv written by 'run' and print the per-method accuracy
table. No API access is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preds, err := evaluator.ReadPredictions(args[0])
			if err != nil {
				return err
			}
			ui.VerboseLog("read %d predictions from %s", len(preds), args[0])

			reports := evaluator.Evaluate(preds)
			return renderAccuracy(reports)
		},
	}
	return cmd
}

// renderAccuracy prints the per-method accuracy table with colored ratios.
func renderAccuracy(reports map[reviews.Method]evaluator.AccuracyReport) error {
	table := ui.Table(evaluator.TableHeaders)
	if err := evaluator.RenderTable(table, reports, output.AccuracyColor); err != nil {
		return fmt.Errorf("failed to render accuracy table: %w", err)
	}
	return nil
}
