package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/kencana-farm/internal/task"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage reminders",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskToggleCmd(a),
		newTaskUpdateCmd(a),
		newTaskDeleteCmd(a),
		newTaskCompactCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cropLabel, _ := cmd.Flags().GetString("crop")
			at, _ := cmd.Flags().GetString("time")
			typeStr, _ := cmd.Flags().GetString("type")

			d := task.Draft{Title: args[0], Crop: cropLabel, Time: at}
			if typeStr != "" {
				typ, err := task.ParseType(typeStr)
				if err != nil {
					return err
				}
				d.Type = typ
			}

			added := a.farm.Tasks.Add(d)
			if a.asJSON {
				return a.printJSON(added)
			}
			fmt.Fprintf(a.stdout, "Added task %d: %s\n", added.ID, added.Title)
			return nil
		},
	}
	cmd.Flags().String("crop", "", "crop or section the reminder is about")
	cmd.Flags().String("time", "", "time of day, e.g. '06:00 AM'")
	cmd.Flags().String("type", "", "water, prune, fertilize, other, general, crop_care or harvest")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders (tasks completed over 48 hours ago are hidden)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")

			var tasks []task.Task
			switch filter {
			case "all":
				tasks = a.farm.Tasks.List()
			case "active":
				tasks = a.farm.Tasks.Active()
			case "completed":
				tasks = a.farm.Tasks.Completed()
			default:
				return fmt.Errorf("invalid --filter %q: want all, active or completed", filter)
			}
			if tasks == nil {
				tasks = []task.Task{}
			}
			return a.print(tasks, renderTaskTable(tasks))
		},
	}
	cmd.Flags().String("filter", "all", "all, active or completed")
	return cmd
}

func newTaskToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a reminder done, or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			t, ok := a.farm.Tasks.ToggleComplete(id)
			if !ok {
				return taskNotFound(id)
			}
			if a.asJSON {
				return a.printJSON(t)
			}
			state := "not done"
			if t.Completed {
				state = "done"
			}
			fmt.Fprintf(a.stdout, "Task %d marked %s\n", t.ID, state)
			return nil
		},
	}
}

func newTaskUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change reminder fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var p task.Patch
			for _, f := range []struct {
				flag string
				dst  **string
			}{
				{"title", &p.Title},
				{"crop", &p.Crop},
				{"time", &p.Time},
			} {
				if flags.Changed(f.flag) {
					v, _ := flags.GetString(f.flag)
					*f.dst = task.StringPtr(v)
				}
			}
			if flags.Changed("type") {
				v, _ := flags.GetString("type")
				typ, err := task.ParseType(v)
				if err != nil {
					return err
				}
				p.Type = task.TypePtr(typ)
			}
			if p == (task.Patch{}) {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			a.farm.Tasks.Update(id, p)
			t, ok := a.farm.Tasks.Get(id)
			if !ok {
				return taskNotFound(id)
			}
			if a.asJSON {
				return a.printJSON(t)
			}
			fmt.Fprintf(a.stdout, "Updated task %d\n", t.ID)
			return nil
		},
	}
	cmd.Flags().String("title", "", "what needs doing")
	cmd.Flags().String("crop", "", "crop or section")
	cmd.Flags().String("time", "", "time of day")
	cmd.Flags().String("type", "", "reminder type")
	return cmd
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if !a.farm.Tasks.Delete(id) {
				return taskNotFound(id)
			}
			fmt.Fprintf(a.stdout, "Deleted task %d\n", id)
			return nil
		},
	}
}

func newTaskCompactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Drop expired completed tasks from storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.farm.Tasks.Compact()
			fmt.Fprintf(a.stdout, "Removed %d expired task(s)\n", n)
			return nil
		},
	}
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func taskNotFound(id int) error {
	return fmt.Errorf("task %d not found", id)
}
