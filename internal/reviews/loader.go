package reviews

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

const (
	// ColumnStars holds the ground-truth rating.
	ColumnStars = "stars"
	// ColumnText holds the review body.
	ColumnText = "text"

	// DefaultSeed keeps sampled runs reproducible.
	DefaultSeed int64 = 42
)

// LoadOptions controls row sampling.
type LoadOptions struct {
	// SampleSize limits the number of rows; 0 keeps every row.
	SampleSize int
	Seed       int64
}

// MissingColumnsError is returned when the input file lacks a required column.
type MissingColumnsError struct {
	Expected []string
	Found    []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("input CSV must have columns %v, found %v", e.Expected, e.Found)
}

// Load reads labelled reviews from the CSV file at path.
func Load(path string, opts LoadOptions) ([]Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews from %s: %w", path, err)
	}
	return Sample(rows, opts), nil
}

// Read parses labelled reviews from CSV data. Extra columns are ignored.
func Read(r io.Reader) ([]Review, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	found := make([]string, 0, len(header))
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		colIndex[name] = i
		found = append(found, name)
	}

	required := []string{ColumnStars, ColumnText}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, &MissingColumnsError{Expected: required, Found: found}
		}
	}

	starsIdx, textIdx := colIndex[ColumnStars], colIndex[ColumnText]
	minCols := max(starsIdx, textIdx) + 1

	var out []Review
	for lineNum := 2; ; lineNum++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", lineNum, err)
		}
		if len(record) < minCols {
			return nil, fmt.Errorf("CSV row %d has %d columns, expected at least %d", lineNum, len(record), minCols)
		}

		stars, err := parseStars(record[starsIdx])
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", lineNum, err)
		}
		out = append(out, Review{ActualStar: stars, Text: record[textIdx]})
	}

	return out, nil
}

// ParseIntegral reads a whole number written either as "4" or "4.0".
func ParseIntegral(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid star rating %q", s)
	}
	return int(v), nil
}

func parseStars(s string) (int, error) {
	stars, err := ParseIntegral(s)
	if err != nil {
		return 0, err
	}
	if stars < 1 || stars > 5 {
		return 0, fmt.Errorf("star rating %d out of range 1-5", stars)
	}
	return stars, nil
}

// Sample returns a reproducible random subset of rows. Rows are returned
// unchanged when no sampling is requested or the sample covers every row.
func Sample(rows []Review, opts LoadOptions) []Review {
	if opts.SampleSize <= 0 || opts.SampleSize >= len(rows) {
		return rows
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	perm := rng.Perm(len(rows))[:opts.SampleSize]
	out := make([]Review, 0, opts.SampleSize)
	for _, i := range perm {
		out = append(out, rows[i])
	}
	return out
}

// StarDistribution counts rows per star value.
func StarDistribution(rows []Review) map[int]int {
	dist := make(map[int]int, 5)
	for _, r := range rows {
		dist[r.ActualStar]++
	}
	return dist
}
