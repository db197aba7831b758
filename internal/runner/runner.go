package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

// ProgressFunc is called after each review/method pair completes.
type ProgressFunc func(done, total int, method reviews.Method)

// Runner evaluates every review with every selected method.
type Runner struct {
	predictor   Predictor
	concurrency int
	progress    ProgressFunc

	mu   sync.Mutex
	done int
}

// NewRunner creates a sequential runner.
func NewRunner(predictor Predictor) *Runner {
	return &Runner{
		predictor:   predictor,
		concurrency: 1,
	}
}

// SetProgressFunc sets the progress callback. Calls are serialized.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.progress = fn
}

// SetConcurrency sets the number of pairs evaluated in parallel. Values below
// one mean sequential execution. Output order does not depend on it.
func (r *Runner) SetConcurrency(n int) {
	r.concurrency = max(n, 1)
}

type pair struct {
	review reviews.Review
	method reviews.Method
}

// Run returns one Prediction per review and method, ordered by review first
// and method second. A failing pair is recorded as a sentinel prediction and
// the run carries on.
//
// When ctx is cancelled no further pairs are started; the predictions that
// completed are returned together with the context error.
func (r *Runner) Run(ctx context.Context, rows []reviews.Review, methods []reviews.Method) ([]reviews.Prediction, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("no methods specified for run")
	}

	pairs := make([]pair, 0, len(rows)*len(methods))
	for _, review := range rows {
		for _, m := range methods {
			pairs = append(pairs, pair{review: review, method: m})
		}
	}

	slog.Info("running predictions",
		"reviews", len(rows),
		"methods", len(methods),
		"calls", len(pairs),
		"concurrency", r.concurrency,
	)

	start := time.Now()
	r.done = 0
	results := make([]reviews.Prediction, len(pairs))
	completed := make([]bool, len(pairs))

	if r.concurrency <= 1 {
		for i, p := range pairs {
			if ctx.Err() != nil {
				break
			}
			results[i], completed[i] = r.evaluate(ctx, p, len(pairs))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i, p := range pairs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				results[i], completed[i] = r.evaluate(ctx, p, len(pairs))
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]reviews.Prediction, 0, len(pairs))
	for i := range pairs {
		if completed[i] {
			out = append(out, results[i])
		}
	}

	if err := ctx.Err(); err != nil {
		slog.Warn("run cancelled", "completed", len(out), "total", len(pairs))
		return out, err
	}

	slog.Info("predictions complete", "calls", len(out), "duration", time.Since(start))
	return out, nil
}

// evaluate runs one pair. Failed predictions produced because ctx was
// cancelled mid-call are not recorded. A panicking predictor yields a failed row.
func (r *Runner) evaluate(ctx context.Context, p pair, total int) (reviews.Prediction, bool) {
	pred, err := r.predict(ctx, p)
	if err != nil {
		slog.Error("prediction failed", "method", p.method, "error", err)
		pred = reviews.Failed(p.review, p.method, "Error: "+err.Error(), err.Error())
	}
	if ctx.Err() != nil && !pred.Valid {
		return reviews.Prediction{}, false
	}

	r.mu.Lock()
	r.done++
	if r.progress != nil {
		r.progress(r.done, total, p.method)
	}
	r.mu.Unlock()

	return pred, true
}

func (r *Runner) predict(ctx context.Context, p pair) (pred reviews.Prediction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("predictor panicked: %v", rec)
		}
	}()
	return r.predictor.Predict(ctx, p.review, p.method)
}
