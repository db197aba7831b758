package mcp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-rating-eval/internal/evaluator"
	"github.com/giantswarm/llm-rating-eval/internal/server"
)

func handleEvaluatePredictions(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	predictionsFile, _ := args["predictions_file"].(string)

	path, err := resolvePredictionsPath(sc.OutputDir, predictionsFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid predictions_file: %v", err)), nil
	}

	preds, err := evaluator.ReadPredictions(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(evaluator.Ordered(evaluator.Evaluate(preds)))
}

func handleGetAccuracy(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	summary, err := evaluator.ReadSummary(filepath.Join(sc.OutputDir, evaluator.AccuracyFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mcp.NewToolResultText("{}"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(summary)
}
