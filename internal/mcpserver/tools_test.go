package mcpserver

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// toolSpec describes the expected shape of a tool definition.
// requiredParams lists parameter names that MUST appear in the schema's
// "required" array; allParams lists every parameter that MUST exist in its
// "properties" map.
type toolSpec struct {
	name           string
	wantName       string
	buildFunc      func() mcp.Tool
	requiredParams []string
	allParams      []string
}

// allTools lists every tool builder registered by NewServer.
var allTools = []func() mcp.Tool{
	listCropsTool,
	getCropTool,
	addCropTool,
	updateCropTool,
	advanceCropStageTool,
	deleteCropTool,
	recordGrowthCheckTool,
	listTasksTool,
	addTaskTool,
	toggleTaskTool,
	updateTaskTool,
	deleteTaskTool,
	compactTasksTool,
	harvestPredictionsTool,
	harvestSummaryTool,
	predictHarvestDateTool,
}

func assertToolSpec(t *testing.T, tool mcp.Tool, spec toolSpec) {
	t.Helper()

	if tool.Name != spec.wantName {
		t.Errorf("tool Name = %q, want %q", tool.Name, spec.wantName)
	}
	if tool.Description == "" {
		t.Errorf("tool %q has empty Description", tool.Name)
	}
	if tool.InputSchema.Type != "object" {
		t.Errorf("tool %q InputSchema.Type = %q, want %q", tool.Name, tool.InputSchema.Type, "object")
	}

	for _, param := range spec.allParams {
		if _, ok := tool.InputSchema.Properties[param]; !ok {
			t.Errorf("tool %q missing expected parameter %q in Properties", tool.Name, param)
		}
	}
	if got, want := len(tool.InputSchema.Properties), len(spec.allParams); got != want {
		t.Errorf("tool %q has %d parameters, want %d", tool.Name, got, want)
	}

	requiredSet := make(map[string]bool, len(tool.InputSchema.Required))
	for _, r := range tool.InputSchema.Required {
		requiredSet[r] = true
	}
	for _, param := range spec.requiredParams {
		if !requiredSet[param] {
			t.Errorf("tool %q: parameter %q should be required but is not in Required array %v",
				tool.Name, param, tool.InputSchema.Required)
		}
	}
	if len(requiredSet) != len(spec.requiredParams) {
		t.Errorf("tool %q Required = %v, want %v", tool.Name, tool.InputSchema.Required, spec.requiredParams)
	}
}

// propertyField returns field of the schema property param.
func propertyField(t *testing.T, tool mcp.Tool, param, field string) any {
	t.Helper()
	prop, ok := tool.InputSchema.Properties[param]
	if !ok {
		t.Fatalf("tool %q missing property %q", tool.Name, param)
	}
	propMap, ok := prop.(map[string]any)
	if !ok {
		t.Fatalf("tool %q property %q is not map[string]any, got %T", tool.Name, param, prop)
	}
	return propMap[field]
}

// ---------------------------------------------------------------------------
// Tool definition tests: table-driven
// ---------------------------------------------------------------------------

func Test_ToolDefinitions_Cases(t *testing.T) {
	t.Parallel()

	tests := []toolSpec{
		{name: "listCropsTool", wantName: "list_crops", buildFunc: listCropsTool},
		{
			name: "getCropTool", wantName: "get_crop", buildFunc: getCropTool,
			requiredParams: []string{"id"}, allParams: []string{"id"},
		},
		{
			name: "addCropTool", wantName: "add_crop", buildFunc: addCropTool,
			requiredParams: []string{"name"},
			allParams:      []string{"name", "variety", "planting_date", "expected_days", "location", "notes", "stage"},
		},
		{
			name: "updateCropTool", wantName: "update_crop", buildFunc: updateCropTool,
			requiredParams: []string{"id", "changes"}, allParams: []string{"id", "changes"},
		},
		{
			name: "advanceCropStageTool", wantName: "advance_crop_stage", buildFunc: advanceCropStageTool,
			requiredParams: []string{"id"}, allParams: []string{"id"},
		},
		{
			name: "deleteCropTool", wantName: "delete_crop", buildFunc: deleteCropTool,
			requiredParams: []string{"id"}, allParams: []string{"id"},
		},
		{
			name: "recordGrowthCheckTool", wantName: "record_growth_check", buildFunc: recordGrowthCheckTool,
			requiredParams: []string{"id"}, allParams: []string{"id", "photo", "caption"},
		},
		{
			name: "listTasksTool", wantName: "list_tasks", buildFunc: listTasksTool,
			allParams: []string{"filter"},
		},
		{
			name: "addTaskTool", wantName: "add_task", buildFunc: addTaskTool,
			requiredParams: []string{"title"}, allParams: []string{"title", "crop", "time", "type"},
		},
		{
			name: "toggleTaskTool", wantName: "toggle_task", buildFunc: toggleTaskTool,
			requiredParams: []string{"id"}, allParams: []string{"id"},
		},
		{
			name: "updateTaskTool", wantName: "update_task", buildFunc: updateTaskTool,
			requiredParams: []string{"id", "changes"}, allParams: []string{"id", "changes"},
		},
		{
			name: "deleteTaskTool", wantName: "delete_task", buildFunc: deleteTaskTool,
			requiredParams: []string{"id"}, allParams: []string{"id"},
		},
		{name: "compactTasksTool", wantName: "compact_tasks", buildFunc: compactTasksTool},
		{name: "harvestPredictionsTool", wantName: "harvest_predictions", buildFunc: harvestPredictionsTool},
		{name: "harvestSummaryTool", wantName: "harvest_summary", buildFunc: harvestSummaryTool},
		{
			name: "predictHarvestDateTool", wantName: "predict_harvest_date", buildFunc: predictHarvestDateTool,
			requiredParams: []string{"planting_date"}, allParams: []string{"planting_date", "expected_days"},
		},
	}

	if len(tests) != len(allTools) {
		t.Fatalf("table covers %d tools, %d are registered", len(tests), len(allTools))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertToolSpec(t, tt.buildFunc(), tt)
		})
	}
}

// ---------------------------------------------------------------------------
// Tool names: uniqueness
// ---------------------------------------------------------------------------

func Test_AllToolNames_AreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool, len(allTools))
	for _, build := range allTools {
		tool := build()
		if seen[tool.Name] {
			t.Errorf("duplicate tool name: %q", tool.Name)
		}
		seen[tool.Name] = true
	}
}

// ---------------------------------------------------------------------------
// Parameter types and enums
// ---------------------------------------------------------------------------

func Test_ToolParamTypes_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		build    func() mcp.Tool
		param    string
		wantType string
	}{
		{build: addCropTool, param: "expected_days", wantType: "number"},
		{build: addCropTool, param: "planting_date", wantType: "string"},
		{build: updateCropTool, param: "changes", wantType: "object"},
		{build: toggleTaskTool, param: "id", wantType: "number"},
		{build: updateTaskTool, param: "changes", wantType: "object"},
		{build: predictHarvestDateTool, param: "expected_days", wantType: "number"},
	}

	for _, tt := range tests {
		tool := tt.build()
		if got := propertyField(t, tool, tt.param, "type"); got != tt.wantType {
			t.Errorf("tool %q property %q type = %v, want %q", tool.Name, tt.param, got, tt.wantType)
		}
	}
}

func Test_EnumParams(t *testing.T) {
	t.Parallel()

	stages, ok := propertyField(t, addCropTool(), "stage", "enum").([]string)
	if !ok || len(stages) != 5 || stages[0] != "Planted" || stages[4] != "Ready" {
		t.Errorf("add_crop stage enum = %v, want the five stage names", stages)
	}

	types, ok := propertyField(t, addTaskTool(), "type", "enum").([]string)
	if !ok || len(types) != 7 {
		t.Errorf("add_task type enum = %v, want 7 task types", types)
	}

	filters, ok := propertyField(t, listTasksTool(), "filter", "enum").([]string)
	if !ok || len(filters) != 3 {
		t.Errorf("list_tasks filter enum = %v, want 3 filters", filters)
	}
}

// ---------------------------------------------------------------------------
// Benchmark
// ---------------------------------------------------------------------------

func Benchmark_ToolDefinitions(b *testing.B) {
	for b.Loop() {
		for _, build := range allTools {
			_ = build()
		}
	}
}
