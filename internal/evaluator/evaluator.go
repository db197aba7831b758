// Package evaluator aggregates predictions into per-method accuracy reports
// and persists run results.
package evaluator

import (
	"log/slog"
	"math"

	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

// AccuracyReport summarises the predictions of one method.
// Accuracies are computed over valid predictions only.
type AccuracyReport struct {
	Method            reviews.Method `json:"method_id"`
	MethodName        string         `json:"method"`
	Total             int            `json:"total"`
	ValidCount        int            `json:"valid_count"`
	ExactMatchCount   int            `json:"exact_match_count"`
	WithinOneCount    int            `json:"within_one_count"`
	ExactAccuracy     float64        `json:"exact_accuracy"`
	WithinOneAccuracy float64        `json:"within_one_accuracy"`
	ValidRate         float64        `json:"valid_rate"`
}

// Evaluate returns a report for every method in reviews.AllMethods. Methods
// without predictions report zero totals.
func Evaluate(preds []reviews.Prediction) map[reviews.Method]AccuracyReport {
	reports := make(map[reviews.Method]AccuracyReport, len(reviews.AllMethods()))
	for _, m := range reviews.AllMethods() {
		reports[m] = AccuracyReport{Method: m, MethodName: m.String()}
	}

	for _, p := range preds {
		r, ok := reports[p.Method]
		if !ok {
			slog.Warn("skipping prediction with unknown method", "method_id", int(p.Method))
			continue
		}
		r.Total++
		if p.Valid {
			r.ValidCount++
			diff := p.PredictedStar - p.ActualStar
			if diff == 0 {
				r.ExactMatchCount++
			}
			if diff >= -1 && diff <= 1 {
				r.WithinOneCount++
			}
		}
		reports[p.Method] = r
	}

	for m, r := range reports {
		r.ExactAccuracy = ratio(r.ExactMatchCount, r.ValidCount)
		r.WithinOneAccuracy = ratio(r.WithinOneCount, r.ValidCount)
		r.ValidRate = ratio(r.ValidCount, r.Total)
		reports[m] = r
	}

	return reports
}

// Ordered returns the reports in method order.
func Ordered(reports map[reviews.Method]AccuracyReport) []AccuracyReport {
	out := make([]AccuracyReport, 0, len(reports))
	for _, m := range reviews.AllMethods() {
		if r, ok := reports[m]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ratio returns n/d rounded to four decimal places, or 0 when d is 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*10000) / 10000
}
