package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/llm-rating-eval/internal/prompt"
	"github.com/giantswarm/llm-rating-eval/internal/reviews"
	"github.com/giantswarm/llm-rating-eval/internal/server"
)

func handlePredictRating(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Predictor == nil {
		return mcp.NewToolResultError("predictor is not configured"), nil
	}

	args := request.GetArguments()

	review, _ := args["review"].(string)
	if strings.TrimSpace(review) == "" {
		return mcp.NewToolResultError("review is required"), nil
	}

	method := reviews.ZeroShot
	switch v := args["method"].(type) {
	case string:
		if v != "" {
			m, err := reviews.ParseMethod(v)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			method = m
		}
	case float64:
		m, err := reviews.ParseMethod(strconv.Itoa(int(v)))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		method = m
	}

	slog.Info("predicting rating via MCP", "method", method)

	pred, err := sc.Predictor.Predict(ctx, reviews.Review{ActualStar: 0, Text: review}, method)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
	}

	return jsonResult(pred)
}

func handleListMethods(_ context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
	type methodInfo struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Examples int    `json:"examples"`
	}

	examples := len(prompt.Examples())
	var methods []methodInfo
	for _, m := range reviews.AllMethods() {
		info := methodInfo{ID: int(m), Name: m.String()}
		if m != reviews.ZeroShot {
			info.Examples = examples
		}
		methods = append(methods, info)
	}

	return jsonResult(methods)
}
