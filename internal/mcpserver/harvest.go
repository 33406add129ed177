package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JamesPrial/kencana-farm/internal/harvest"
)

// HandleHarvestPredictions forecasts every crop's harvest.
func (h *Handlers) HandleHarvestPredictions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.farm.Predictions())
}

// HandleHarvestSummary aggregates the forecasts.
func (h *Handlers) HandleHarvestSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.farm.Summary())
}

// HandlePredictHarvestDate computes a harvest date.
// Parameters:
//   - planting_date (string, required): YYYY-MM-DD
//   - expected_days (number, optional): defaults to 60
func (h *Handlers) HandlePredictHarvestDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planted, err := request.RequireString("planting_date")
	if err != nil || planted == "" {
		return mcp.NewToolResultError("Missing required parameter: planting_date"), nil
	}
	days, err := optionalInt(request.GetArguments(), "expected_days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date, err := harvest.PredictHarvestDate(planted, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid planting_date: %v", err)), nil
	}
	return mcp.NewToolResultText(date), nil
}
