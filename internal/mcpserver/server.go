package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/farm"
	"github.com/JamesPrial/kencana-farm/internal/logging"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Handlers implements the tool handlers over one farm.
type Handlers struct {
	farm   *farm.Farm
	logger *zap.Logger
}

// NewHandlers returns handlers operating on f.
func NewHandlers(f *farm.Farm, logger *zap.Logger) *Handlers {
	return &Handlers{farm: f, logger: logging.OrNop(logger)}
}

// NewServer creates an MCP server with every farm tool registered.
func NewServer(f *farm.Farm, logger *zap.Logger) (*server.MCPServer, error) {
	if f == nil {
		return nil, fmt.Errorf("farm is required")
	}
	h := NewHandlers(f, logger)

	s := server.NewMCPServer(
		"kencana-farm",
		Version,
		server.WithToolCapabilities(true),
	)

	// Crop tools
	s.AddTool(listCropsTool(), h.HandleListCrops)
	s.AddTool(getCropTool(), h.HandleGetCrop)
	s.AddTool(addCropTool(), h.HandleAddCrop)
	s.AddTool(updateCropTool(), h.HandleUpdateCrop)
	s.AddTool(advanceCropStageTool(), h.HandleAdvanceCropStage)
	s.AddTool(deleteCropTool(), h.HandleDeleteCrop)
	s.AddTool(recordGrowthCheckTool(), h.HandleRecordGrowthCheck)

	// Task tools
	s.AddTool(listTasksTool(), h.HandleListTasks)
	s.AddTool(addTaskTool(), h.HandleAddTask)
	s.AddTool(toggleTaskTool(), h.HandleToggleTask)
	s.AddTool(updateTaskTool(), h.HandleUpdateTask)
	s.AddTool(deleteTaskTool(), h.HandleDeleteTask)
	s.AddTool(compactTasksTool(), h.HandleCompactTasks)

	// Harvest tools
	s.AddTool(harvestPredictionsTool(), h.HandleHarvestPredictions)
	s.AddTool(harvestSummaryTool(), h.HandleHarvestSummary)
	s.AddTool(predictHarvestDateTool(), h.HandlePredictHarvestDate)

	return s, nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
