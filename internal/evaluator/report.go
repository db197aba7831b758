package evaluator

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/olekukonko/tablewriter"

	"github.com/giantswarm/llm-rating-eval/internal/reviews"
)

const (
	// PredictionsFile is the per-row output written to the results directory.
	PredictionsFile = "predictions.csv"
	// AccuracyFile is the summary output written to the results directory.
	AccuracyFile = "accuracy.json"

	reviewExcerptLen = 500
)

var predictionColumns = []string{
	"star", "review", "predicted_star", "explanation", "reasoning", "method_id", "method", "raw_llm_output",
}

// Metadata describes a run.
type Metadata struct {
	RunID       string   `json:"run_id"`
	Timestamp   string   `json:"timestamp"`
	Model       string   `json:"model"`
	Input       string   `json:"input"`
	SampleSize  int      `json:"sample_size"`
	Methods     []string `json:"methods"`
	Interrupted bool     `json:"interrupted"`
}

// Summary is the content of accuracy.json.
type Summary struct {
	Metadata Metadata                  `json:"metadata"`
	Methods  map[string]AccuracyReport `json:"methods"`
}

// NewMetadata returns Metadata stamped with a fresh run id and the current time.
func NewMetadata() Metadata {
	return Metadata{
		RunID:     ulid.Make().String(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NewSummary keys reports by method name.
func NewSummary(meta Metadata, reports map[reviews.Method]AccuracyReport) *Summary {
	s := &Summary{Metadata: meta, Methods: make(map[string]AccuracyReport, len(reports))}
	for _, r := range reports {
		s.Methods[r.MethodName] = r
	}
	return s
}

// TableHeaders are the columns filled by RenderTable.
var TableHeaders = []string{"Method", "Total", "Valid", "Valid %", "Exact", "Within-1"}

// RenderTable appends one row per report in method order to a table created
// with TableHeaders and renders it. Ratios are formatted with pct, or as plain
// percentages when pct is nil.
func RenderTable(table *tablewriter.Table, reports map[reviews.Method]AccuracyReport, pct func(float64) string) error {
	if pct == nil {
		pct = percent
	}

	for _, r := range Ordered(reports) {
		if err := table.Append([]string{
			r.MethodName,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.ValidCount),
			pct(r.ValidRate),
			pct(r.ExactAccuracy),
			pct(r.WithinOneAccuracy),
		}); err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	return table.Render()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// Artifacts are the files written by WriteResults.
type Artifacts struct {
	Predictions string
	Accuracy    string
}

// WriteResults writes predictions.csv and accuracy.json into dir, creating it if needed.
func WriteResults(dir string, preds []reviews.Prediction, summary *Summary) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := &Artifacts{
		Predictions: filepath.Join(dir, PredictionsFile),
		Accuracy:    filepath.Join(dir, AccuracyFile),
	}

	if err := writePredictions(files.Predictions, preds); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal accuracy summary: %w", err)
	}
	if err := os.WriteFile(files.Accuracy, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write accuracy file: %w", err)
	}

	return files, nil
}

func writePredictions(path string, preds []reviews.Prediction) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create predictions file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close predictions file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(predictionColumns); err != nil {
		return fmt.Errorf("failed to write predictions header: %w", err)
	}
	for _, p := range preds {
		record := []string{
			strconv.Itoa(p.ActualStar),
			truncateReview(p.ReviewText),
			strconv.Itoa(p.PredictedStar),
			p.Explanation,
			p.Reasoning,
			strconv.Itoa(int(p.Method)),
			p.Method.String(),
			p.RawOutput,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write prediction row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush predictions: %w", err)
	}
	return nil
}

func truncateReview(s string) string {
	runes := []rune(s)
	if len(runes) <= reviewExcerptLen {
		return s
	}
	return string(runes[:reviewExcerptLen]) + "..."
}

// ReadPredictions loads a predictions CSV written by WriteResults. Ratings may
// be written as "4" or "4.0". A row is valid when its predicted_star is in 1-5. The method is taken from
// method_id, falling back to the method name.
func ReadPredictions(path string) ([]reviews.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("predictions file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to read predictions header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"star", "predicted_star"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("predictions file %s has no %q column", path, required)
		}
	}
	_, hasID := col["method_id"]
	_, hasName := col["method"]
	if !hasID && !hasName {
		return nil, fmt.Errorf("predictions file %s has neither method_id nor method column", path)
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var preds []reviews.Prediction
	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read predictions row %d: %w", row, err)
		}

		actual, err := reviews.ParseIntegral(field(record, "star"))
		if err != nil {
			return nil, fmt.Errorf("predictions row %d: invalid star: %w", row, err)
		}
		predicted, err := reviews.ParseIntegral(field(record, "predicted_star"))
		if err != nil {
			return nil, fmt.Errorf("predictions row %d: invalid predicted_star: %w", row, err)
		}

		method, err := readMethod(field(record, "method_id"), field(record, "method"))
		if err != nil {
			return nil, fmt.Errorf("predictions row %d: %w", row, err)
		}

		preds = append(preds, reviews.Prediction{
			Method:        method,
			ActualStar:    actual,
			ReviewText:    field(record, "review"),
			PredictedStar: predicted,
			Explanation:   field(record, "explanation"),
			Reasoning:     field(record, "reasoning"),
			RawOutput:     field(record, "raw_llm_output"),
			Valid:         predicted >= 1 && predicted <= 5,
		})
	}

	return preds, nil
}

func readMethod(id, name string) (reviews.Method, error) {
	if strings.TrimSpace(id) != "" {
		return reviews.ParseMethod(id)
	}
	return reviews.ParseMethod(name)
}

// ReadSummary loads an accuracy.json file.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accuracy file: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse accuracy file: %w", err)
	}
	return &s, nil
}
