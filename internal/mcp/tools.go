package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/llm-rating-eval/internal/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	registerPredictionTools(s, sc)
	registerResultTools(s, sc)
	return nil
}

func registerPredictionTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	predictTool := mcp.NewTool("predict_rating",
		mcp.WithDescription("Predict the 1-5 star rating of a single review with one prompting method"),
		mcp.WithString("review",
			mcp.Required(),
			mcp.Description("Review text to rate"),
		),
		mcp.WithString("method",
			mcp.Description("Prompting method id or name: 1/zero_shot, 2/few_shot, 3/cot_few_shot (default: zero_shot)"),
		),
	)
	s.AddTool(predictTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePredictRating(ctx, request, sc)
	})

	listTool := mcp.NewTool("list_methods",
		mcp.WithDescription("List the available prompting methods"),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMethods(ctx, request, sc)
	})
}

func registerResultTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	evaluateTool := mcp.NewTool("evaluate_predictions",
		mcp.WithDescription("Recompute per-method accuracy from a saved predictions CSV in the output directory"),
		mcp.WithString("predictions_file",
			mcp.Description("Predictions CSV relative to the output directory (default: predictions.csv)"),
		),
	)
	s.AddTool(evaluateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEvaluatePredictions(ctx, request, sc)
	})

	accuracyTool := mcp.NewTool("get_accuracy",
		mcp.WithDescription("Return the accuracy summary of the last saved run"),
	)
	s.AddTool(accuracyTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAccuracy(ctx, request, sc)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
