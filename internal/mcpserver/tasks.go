package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/task"
)

// HandleListTasks lists visible tasks.
// Parameters:
//   - filter (string, optional): all (default), active or completed
func (h *Handlers) HandleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tasks []task.Task
	switch filter := request.GetString("filter", filterAll); filter {
	case filterAll:
		tasks = h.farm.Tasks.List()
	case filterActive:
		tasks = h.farm.Tasks.Active()
	case filterCompleted:
		tasks = h.farm.Tasks.Completed()
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Invalid filter: %s (want all, active or completed)", filter)), nil
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return jsonResult(tasks)
}

// HandleAddTask creates a task.
// Parameters:
//   - title (string, required)
//   - crop, time, type (string, optional)
func (h *Handlers) HandleAddTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil || title == "" {
		return mcp.NewToolResultError("Missing required parameter: title"), nil
	}

	d := task.Draft{
		Title: title,
		Crop:  request.GetString("crop", ""),
		Time:  request.GetString("time", ""),
	}
	if s := request.GetString("type", ""); s != "" {
		typ, err := task.ParseType(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		d.Type = typ
	}

	added := h.farm.Tasks.Add(d)
	h.logger.Info("task added", zap.Int("task_id", added.ID), zap.String("title", added.Title))
	return jsonResult(added)
}

// HandleToggleTask flips a task's completion.
// Parameters:
//   - id (number, required)
func (h *Handlers) HandleToggleTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredInt(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, ok := h.farm.Tasks.ToggleComplete(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Task not found: %d", id)), nil
	}
	return jsonResult(t)
}

// HandleUpdateTask applies a patch to a task.
// Parameters:
//   - id (number, required)
//   - changes (object, required): title, crop, time and/or type
func (h *Handlers) HandleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := requiredInt(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var patch task.Patch
	if err := decodeObject(args, "changes", &patch); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch == (task.Patch{}) {
		return mcp.NewToolResultError("changes must set at least one field"), nil
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown task type %q", *patch.Type)), nil
	}

	h.farm.Tasks.Update(id, patch)
	t, ok := h.farm.Tasks.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Task not found: %d", id)), nil
	}
	return jsonResult(t)
}

// HandleDeleteTask removes a task.
// Parameters:
//   - id (number, required)
func (h *Handlers) HandleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredInt(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !h.farm.Tasks.Delete(id) {
		return mcp.NewToolResultError(fmt.Sprintf("Task not found: %d", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted task %d", id)), nil
}

// HandleCompactTasks drops expired tasks from storage.
func (h *Handlers) HandleCompactTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := h.farm.Tasks.Compact()
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d expired task(s)", n)), nil
}
