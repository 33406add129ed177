// Package mcpserver exposes the farm state as MCP tools.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

// Task list filters accepted by list_tasks.
const (
	filterAll       = "all"
	filterActive    = "active"
	filterCompleted = "completed"
)

func stageNames() []string {
	names := make([]string, crop.StageCount)
	for i := range names {
		names[i] = crop.Stage(i).String()
	}
	return names
}

func taskTypeNames() []string {
	return []string{
		string(task.TypeWater), string(task.TypePrune), string(task.TypeFertilize),
		string(task.TypeOther), string(task.TypeGeneral), string(task.TypeCropCare),
		string(task.TypeHarvest),
	}
}

// ---------------------------------------------------------------------------
// Crops
// ---------------------------------------------------------------------------

func listCropsTool() mcp.Tool {
	return mcp.NewTool("list_crops",
		mcp.WithDescription("List every tracked crop with its stage, health and predicted harvest date."),
	)
}

func getCropTool() mcp.Tool {
	return mcp.NewTool("get_crop",
		mcp.WithDescription("Get one crop by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Crop id")),
	)
}

func addCropTool() mcp.Tool {
	return mcp.NewTool("add_crop",
		mcp.WithDescription("Start tracking a new crop. The id is generated."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Crop name, e.g. 'Alphonso Mango'")),
		mcp.WithString("variety",
			mcp.Description("Variety or cultivar")),
		mcp.WithString("planting_date",
			mcp.Description("Planting date as YYYY-MM-DD (defaults to today)")),
		mcp.WithNumber("expected_days",
			mcp.Description("Expected days from planting to harvest (defaults to 60)")),
		mcp.WithString("location",
			mcp.Description("Field or section where the crop grows")),
		mcp.WithString("notes",
			mcp.Description("Free-form notes")),
		mcp.WithString("stage",
			mcp.Description("Initial growth stage (defaults to Planted)"),
			mcp.Enum(stageNames()...)),
	)
}

func updateCropTool() mcp.Tool {
	return mcp.NewTool("update_crop",
		mcp.WithDescription("Overwrite fields of a crop. Fields use the stored camelCase names (name, variety, plantingDate, expectedDaysToHarvest, location, lastWatered, lastFertilized, lastPesticide, photos, notes, health, expectedYield, confidenceLevel, estimatedHarvestDate). The stage cannot be set here; use advance_crop_stage."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Crop id")),
		mcp.WithObject("changes",
			mcp.Required(),
			mcp.Description("Object mapping field names to new values")),
	)
}

func advanceCropStageTool() mcp.Tool {
	return mcp.NewTool("advance_crop_stage",
		mcp.WithDescription("Move a crop to its next growth stage. A crop that is Ready stays Ready."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Crop id")),
	)
}

func deleteCropTool() mcp.Tool {
	return mcp.NewTool("delete_crop",
		mcp.WithDescription("Stop tracking a crop."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Crop id")),
	)
}

func recordGrowthCheckTool() mcp.Tool {
	return mcp.NewTool("record_growth_check",
		mcp.WithDescription("Record a growth check: the crop advances one stage, takes the assessed health and keeps the photo, and each suggestion becomes a reminder. Without a caption a simulated assessment is used."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Crop id")),
		mcp.WithString("photo",
			mcp.Description("Photo URL or data URI to attach")),
		mcp.WithString("caption",
			mcp.Description("Image caption describing the plant, e.g. 'yellow leaves on a mango tree'")),
	)
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func listTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List reminders. Tasks completed more than 48 hours ago are not shown."),
		mcp.WithString("filter",
			mcp.Description("Which tasks to list (defaults to all)"),
			mcp.Enum(filterAll, filterActive, filterCompleted)),
	)
}

func addTaskTool() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription("Add a reminder."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("What needs doing")),
		mcp.WithString("crop",
			mcp.Description("Crop or section the reminder is about")),
		mcp.WithString("time",
			mcp.Description("Time of day, e.g. '06:00 AM'")),
		mcp.WithString("type",
			mcp.Description("Reminder type (defaults to other)"),
			mcp.Enum(taskTypeNames()...)),
	)
}

func toggleTaskTool() mcp.Tool {
	return mcp.NewTool("toggle_task",
		mcp.WithDescription("Mark a reminder done, or not done if it already is."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
	)
}

func updateTaskTool() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription("Overwrite fields of a reminder (title, crop, time, type). Use toggle_task to change completion."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
		mcp.WithObject("changes",
			mcp.Required(),
			mcp.Description("Object mapping field names to new values")),
	)
}

func deleteTaskTool() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a reminder."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id")),
	)
}

func compactTasksTool() mcp.Tool {
	return mcp.NewTool("compact_tasks",
		mcp.WithDescription("Permanently drop tasks completed more than 48 hours ago from storage."),
	)
}

// ---------------------------------------------------------------------------
// Harvest
// ---------------------------------------------------------------------------

func harvestPredictionsTool() mcp.Tool {
	return mcp.NewTool("harvest_predictions",
		mcp.WithDescription("Forecast the harvest of every crop: days remaining, date, expected yield, confidence and status."),
	)
}

func harvestSummaryTool() mcp.Tool {
	return mcp.NewTool("harvest_summary",
		mcp.WithDescription("Days until the next harvest and the total expected yield in kg."),
	)
}

func predictHarvestDateTool() mcp.Tool {
	return mcp.NewTool("predict_harvest_date",
		mcp.WithDescription("Compute a harvest date from a planting date and growing period."),
		mcp.WithString("planting_date",
			mcp.Required(),
			mcp.Description("Planting date as YYYY-MM-DD")),
		mcp.WithNumber("expected_days",
			mcp.Description("Days from planting to harvest (defaults to 60)")),
	)
}
