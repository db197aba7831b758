package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-rating-eval/internal/evaluator"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
	"github.com/giantswarm/llm-rating-eval/internal/runner"
)

// connectionTestReview is rated once by --test-api.
const connectionTestReview = "The food was great!"

func newRunCmd() *cobra.Command {
	var (
		input       string
		sample      int
		seed        int64
		methodArgs  []string
		outputDir   string
		concurrency int
		testAPI     bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Predict star ratings for a review CSV and report accuracy",
		Long: `Load a CSV with 'stars' and 'text' columns, predict the rating of every review
with each selected prompting method, print the accuracy table and write
predictions.csv and accuracy.json to the output directory.

Interrupting the run (Ctrl-C) stops sending new requests; the predictions
collected so far are still evaluated and saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			predictor := newPredictorFromConfig(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if testAPI {
				return testConnection(ctx, predictor, cfg.Model)
			}

			if input == "" {
				return fmt.Errorf("--input is required")
			}

			methods, err := parseMethods(methodArgs)
			if err != nil {
				return err
			}

			ui.Info("Loading data from %s", input)
			rows, err := reviews.Load(input, reviews.LoadOptions{SampleSize: sample, Seed: seed})
			if err != nil {
				return err
			}
			ui.Info("Loaded %d reviews", len(rows))
			dist := reviews.StarDistribution(rows)
			for star := 1; star <= 5; star++ {
				ui.VerboseLog("%d stars: %d", star, dist[star])
			}

			r := runner.NewRunner(predictor)
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Concurrency
			}
			r.SetConcurrency(concurrency)
			r.SetProgressFunc(func(done, total int, m reviews.Method) {
				ui.Progress(done, total, m.String())
			})

			meta := evaluator.NewMetadata()
			meta.Model = cfg.Model
			meta.Input = input
			meta.SampleSize = len(rows)

			ui.Info("Running %d methods on %d reviews with %s", len(methods), len(rows), cfg.Model)
			return executeRun(ctx, r, rows, methods, outputDir, meta)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input CSV with 'stars' and 'text' columns")
	cmd.Flags().IntVarP(&sample, "sample", "s", 0, "Evaluate a random sample of N reviews (0 means all)")
	cmd.Flags().Int64Var(&seed, "seed", reviews.DefaultSeed, "Random seed for --sample")
	cmd.Flags().StringSliceVarP(&methodArgs, "method", "m", nil, "Methods to run: 1/zero_shot, 2/few_shot, 3/cot_few_shot (default: all)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "results", "Directory for predictions.csv and accuracy.json")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of review/method pairs evaluated in parallel")
	cmd.Flags().BoolVar(&testAPI, "test-api", false, "Send a single test prediction and exit")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout for the run (e.g. 30m, 1h). 0 means no timeout")

	return cmd
}

// parseMethods resolves method flags, defaulting to every method.
// Duplicates are dropped; the given order is kept.
func parseMethods(args []string) ([]reviews.Method, error) {
	if len(args) == 0 {
		return reviews.AllMethods(), nil
	}
	var methods []reviews.Method
	for _, a := range args {
		m, err := reviews.ParseMethod(a)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	return methods, nil
}

// executeRun predicts, prints the accuracy table and saves the results. An
// interrupted run is still evaluated and saved before its error is returned.
func executeRun(ctx context.Context, r *runner.Runner, rows []reviews.Review, methods []reviews.Method, outputDir string, meta evaluator.Metadata) error {
	preds, runErr := r.Run(ctx, rows, methods)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	meta.Interrupted = runErr != nil
	for _, m := range methods {
		meta.Methods = append(meta.Methods, m.String())
	}

	if meta.Interrupted {
		ui.Warning("Run interrupted after %d of %d predictions; saving partial results", len(preds), len(rows)*len(methods))
	}

	reports := evaluator.Evaluate(preds)
	fmt.Fprintln(ui.Out)
	if err := renderAccuracy(reports); err != nil {
		return err
	}
	fmt.Fprintln(ui.Out)

	files, err := evaluator.WriteResults(outputDir, preds, evaluator.NewSummary(meta, reports))
	if err != nil {
		return err
	}
	ui.Success("Predictions saved to %s", files.Predictions)
	ui.Success("Accuracy saved to %s", files.Accuracy)

	slog.Info("run complete", "run_id", meta.RunID, "predictions", len(preds), "interrupted", meta.Interrupted)

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

// testConnection rates a fixed review once and reports whether a valid rating came back.
func testConnection(ctx context.Context, predictor runner.Predictor, model string) error {
	ui.Info("Testing connection with model %s", model)

	pred, err := predictor.Predict(ctx, reviews.Review{Text: connectionTestReview}, reviews.ZeroShot)
	if err != nil {
		ui.Error("API connection failed: %v", err)
		return err
	}
	if !pred.Valid {
		ui.Error("API returned an invalid response: %s", pred.Explanation)
		return fmt.Errorf("API test failed: %s", pred.Explanation)
	}

	ui.Success("API connection successful! Predicted: %d stars", pred.PredictedStar)
	ui.Info("Explanation: %s", pred.Explanation)
	return nil
}
