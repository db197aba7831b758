package server

import (
	"github.com/giantswarm/llm-rating-eval/internal/runner"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	Predictor runner.Predictor
	Model     string
	OutputDir string // results directory; file arguments are confined to it
}
