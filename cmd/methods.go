package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/output"
	"github.com/giantswarm/llm-rating-eval/internal/prompt"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

var methodDescriptions = map[reviews.Method]string{
	reviews.ZeroShot:              "Rubric only, no examples",
	reviews.FewShot:               "Rubric plus labelled calibration examples",
	reviews.ChainOfThoughtFewShot: "Examples plus step-by-step reasoning before the rating",
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the available prompting methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			examples := len(prompt.Examples())

			table := ui.Table([]string{"ID", "Method", "Examples", "Description"})
			for _, m := range reviews.AllMethods() {
				n := 0
				if m != reviews.ZeroShot {
					n = examples
				}
				if err := table.Append([]string{
					strconv.Itoa(int(m)),
					output.Cyan(m.String()),
					strconv.Itoa(n),
					methodDescriptions[m],
				}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
