package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/growth"
	"github.com/JamesPrial/kencana-farm/internal/harvest"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

// cropView is a crop as shown to clients, with its derived harvest date.
type cropView struct {
	crop.Crop
	Stage            string `json:"stage"`
	PredictedHarvest string `json:"predictedHarvest,omitempty"`
}

func viewCrop(c crop.Crop) cropView {
	v := cropView{Crop: c, Stage: c.Stage().String()}
	if date, err := harvest.PredictHarvestDate(c.PlantingDate, c.ExpectedDaysToHarvest); err == nil {
		v.PredictedHarvest = date
	}
	return v
}

// HandleListCrops returns every crop.
func (h *Handlers) HandleListCrops(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crops := h.farm.Crops.List()
	views := make([]cropView, 0, len(crops))
	for _, c := range crops {
		views = append(views, viewCrop(c))
	}
	return jsonResult(views)
}

// HandleGetCrop returns one crop.
// Parameters:
//   - id (string, required): crop id
func (h *Handlers) HandleGetCrop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	c, ok := h.farm.Crops.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Crop not found: %s", id)), nil
	}
	return jsonResult(viewCrop(c))
}

// HandleAddCrop creates a crop.
// Parameters:
//   - name (string, required)
//   - variety, planting_date, location, notes, stage (string, optional)
//   - expected_days (number, optional)
//
// The planting date defaults to today and must parse as a date.
func (h *Handlers) HandleAddCrop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, err := request.RequireString("name")
	if err != nil || name == "" {
		return mcp.NewToolResultError("Missing required parameter: name"), nil
	}

	c := crop.Crop{
		Name:         name,
		Variety:      request.GetString("variety", ""),
		PlantingDate: request.GetString("planting_date", h.farm.Now().Format("2006-01-02")),
		Location:     request.GetString("location", ""),
		Notes:        request.GetString("notes", ""),
	}
	if _, err := harvest.ParseDate(c.PlantingDate); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid planting_date: %v", err)), nil
	}

	days, err := optionalInt(args, "expected_days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.ExpectedDaysToHarvest = days

	if s := request.GetString("stage", ""); s != "" {
		stage, err := crop.ParseStage(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid stage: %v", err)), nil
		}
		c.StageIndex = crop.IntPtr(int(stage))
	}
	if err := c.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid crop: %v", err)), nil
	}

	added := h.farm.Crops.Add(c)
	h.logger.Info("crop added", zap.String("crop_id", added.ID), zap.String("name", added.Name))
	return jsonResult(viewCrop(added))
}

// HandleUpdateCrop applies a patch to a crop.
// Parameters:
//   - id (string, required)
//   - changes (object, required): fields of crop.Patch by their JSON names
func (h *Handlers) HandleUpdateCrop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	var patch crop.Patch
	if err := decodeObject(request.GetArguments(), "changes", &patch); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch.IsEmpty() {
		return mcp.NewToolResultError("changes must set at least one field"), nil
	}
	if patch.PlantingDate != nil {
		if _, err := harvest.ParseDate(*patch.PlantingDate); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid plantingDate: %v", err)), nil
		}
	}
	if err := patch.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid changes: %v", err)), nil
	}

	if !h.farm.Crops.Update(id, patch) {
		if _, ok := h.farm.Crops.Get(id); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Crop not found: %s", id)), nil
		}
	}
	c, _ := h.farm.Crops.Get(id)
	return jsonResult(viewCrop(c))
}

// HandleAdvanceCropStage moves a crop to its next stage.
// Parameters:
//   - id (string, required)
func (h *Handlers) HandleAdvanceCropStage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	c, ok := h.farm.Crops.AdvanceStage(id)
	if !ok {
		if c, ok = h.farm.Crops.Get(id); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Crop not found: %s", id)), nil
		}
	}
	return jsonResult(viewCrop(c))
}

// HandleDeleteCrop removes a crop.
// Parameters:
//   - id (string, required)
func (h *Handlers) HandleDeleteCrop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	if !h.farm.Crops.Delete(id) {
		return mcp.NewToolResultError(fmt.Sprintf("Crop not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted crop %s", id)), nil
}

// growthCheckResult is the response of record_growth_check.
type growthCheckResult struct {
	Crop      cropView        `json:"crop"`
	Analysis  growth.Analysis `json:"analysis"`
	Reminders []task.Task     `json:"reminders"`
}

// HandleRecordGrowthCheck records a growth check on a crop.
// Parameters:
//   - id (string, required)
//   - photo (string, optional)
//   - caption (string, optional): analysed with growth.ParseCaption; a
//     simulated analysis is used when absent
func (h *Handlers) HandleRecordGrowthCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	var analysis growth.Analysis
	if caption := request.GetString("caption", ""); caption != "" {
		analysis = growth.ParseCaption(caption)
	} else {
		analysis = growth.Simulated(nil)
	}

	c, reminders, ok := h.farm.Growth.Record(ctx, id, request.GetString("photo", ""), analysis)
	if !ok {
		if err := ctx.Err(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Growth check canceled: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Crop not found: %s", id)), nil
	}
	return jsonResult(growthCheckResult{Crop: viewCrop(c), Analysis: analysis, Reminders: reminders})
}
