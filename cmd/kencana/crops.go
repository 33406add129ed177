package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/growth"
	"github.com/JamesPrial/kencana-farm/internal/harvest"
)

func newCropCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Manage crops",
	}
	cmd.AddCommand(
		newCropAddCmd(a),
		newCropListCmd(a),
		newCropShowCmd(a),
		newCropUpdateCmd(a),
		newCropAdvanceCmd(a),
		newCropCheckCmd(a),
		newCropDeleteCmd(a),
	)
	return cmd
}

func newCropAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Start tracking a crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			variety, _ := flags.GetString("variety")
			planted, _ := flags.GetString("planted")
			location, _ := flags.GetString("location")
			notes, _ := flags.GetString("notes")
			stageStr, _ := flags.GetString("stage")

			if planted == "" {
				planted = a.farm.Now().Format("2006-01-02")
			}
			if _, err := harvest.ParseDate(planted); err != nil {
				return fmt.Errorf("invalid --planted: %w", err)
			}

			c := crop.Crop{
				Name:         args[0],
				Variety:      variety,
				PlantingDate: planted,
				Location:     location,
				Notes:        notes,
			}
			if flags.Changed("days") {
				days, _ := flags.GetInt("days")
				c.ExpectedDaysToHarvest = crop.IntPtr(days)
			}
			if stageStr != "" {
				stage, err := crop.ParseStage(stageStr)
				if err != nil {
					return err
				}
				c.StageIndex = crop.IntPtr(int(stage))
			}
			if err := c.Validate(); err != nil {
				return err
			}

			added := a.farm.Crops.Add(c)
			if a.asJSON {
				return a.printJSON(added)
			}
			fmt.Fprintf(a.stdout, "Added crop %s (%s)\n", added.Name, added.ID)
			return nil
		},
	}
	cmd.Flags().String("variety", "", "variety or cultivar")
	cmd.Flags().String("planted", "", "planting date as YYYY-MM-DD (default today)")
	cmd.Flags().Int("days", 0, "expected days from planting to harvest (default 60)")
	cmd.Flags().String("location", "", "field or section")
	cmd.Flags().String("notes", "", "free-form notes")
	cmd.Flags().String("stage", "", "initial growth stage name or index")
	return cmd
}

func newCropListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List crops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			crops := a.farm.Crops.List()
			return a.print(crops, renderCropTable(crops))
		},
	}
}

func newCropShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show crop details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := a.farm.Crops.Get(args[0])
			if !ok {
				return cropNotFound(args[0])
			}
			return a.print(c, renderCropDetails(c))
		},
	}
}

func newCropUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change crop fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := cropPatchFromFlags(cmd)
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			id := args[0]
			if _, ok := a.farm.Crops.Get(id); !ok {
				return cropNotFound(id)
			}
			a.farm.Crops.Update(id, patch)
			c, _ := a.farm.Crops.Get(id)
			if a.asJSON {
				return a.printJSON(c)
			}
			fmt.Fprintf(a.stdout, "Updated crop %s\n", c.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("name", "", "crop name")
	flags.String("variety", "", "variety or cultivar")
	flags.String("planted", "", "planting date as YYYY-MM-DD")
	flags.Int("days", 0, "expected days from planting to harvest")
	flags.String("location", "", "field or section")
	flags.String("notes", "", "free-form notes")
	flags.String("watered", "", "last watering date")
	flags.String("fertilized", "", "last fertilizing date")
	flags.String("pesticide", "", "last pesticide date")
	flags.Int("health", 0, "health percentage")
	flags.String("yield", "", "expected yield, e.g. '120 kg'")
	flags.Int("confidence", 0, "forecast confidence percentage")
	flags.String("harvest-date", "", "estimated harvest date")
	return cmd
}

// cropPatchFromFlags builds a patch from the flags the user set.
func cropPatchFromFlags(cmd *cobra.Command) (crop.Patch, error) {
	flags := cmd.Flags()
	var p crop.Patch

	strFields := []struct {
		flag string
		dst  **string
	}{
		{"name", &p.Name},
		{"variety", &p.Variety},
		{"planted", &p.PlantingDate},
		{"location", &p.Location},
		{"notes", &p.Notes},
		{"watered", &p.LastWatered},
		{"fertilized", &p.LastFertilized},
		{"pesticide", &p.LastPesticide},
		{"yield", &p.ExpectedYield},
		{"harvest-date", &p.EstimatedHarvestDate},
	}
	for _, f := range strFields {
		if flags.Changed(f.flag) {
			v, _ := flags.GetString(f.flag)
			*f.dst = crop.StringPtr(v)
		}
	}

	intFields := []struct {
		flag string
		dst  **int
	}{
		{"days", &p.ExpectedDaysToHarvest},
		{"health", &p.Health},
		{"confidence", &p.ConfidenceLevel},
	}
	for _, f := range intFields {
		if flags.Changed(f.flag) {
			v, _ := flags.GetInt(f.flag)
			*f.dst = crop.IntPtr(v)
		}
	}

	if p.PlantingDate != nil {
		if _, err := harvest.ParseDate(*p.PlantingDate); err != nil {
			return p, fmt.Errorf("invalid --planted: %w", err)
		}
	}
	return p, p.Validate()
}

func newCropAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a crop to its next growth stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := a.farm.Crops.AdvanceStage(args[0])
			if !ok {
				if c, ok = a.farm.Crops.Get(args[0]); !ok {
					return cropNotFound(args[0])
				}
			}
			if a.asJSON {
				return a.printJSON(c)
			}
			fmt.Fprintf(a.stdout, "%s is now %s\n", c.Name, c.Stage())
			return nil
		},
	}
}

func newCropCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <id>",
		Short: "Record a growth check and add suggested reminders",
		Long: "Record a growth check: the crop advances one stage, takes the assessed health and " +
			"keeps the photo, and each suggestion becomes a reminder. The assessment is derived " +
			"from --caption, or simulated when no caption is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, _ := cmd.Flags().GetString("photo")
			caption, _ := cmd.Flags().GetString("caption")

			analysis := growth.Simulated(nil)
			if caption != "" {
				analysis = growth.ParseCaption(caption)
			}

			c, reminders, ok := a.farm.Growth.Record(cmd.Context(), args[0], photo, analysis)
			if !ok {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				return cropNotFound(args[0])
			}
			if a.asJSON {
				return a.printJSON(map[string]any{"crop": c, "analysis": analysis, "reminders": reminders})
			}

			fmt.Fprintf(a.stdout, "%s is now %s, health %d%%\n", c.Name, c.Stage(), analysis.Health)
			for _, issue := range analysis.Issues {
				fmt.Fprintf(a.stdout, "Issue: %s\n", issue)
			}
			for _, r := range reminders {
				fmt.Fprintf(a.stdout, "Added reminder %d: %s\n", r.ID, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().String("photo", "", "photo URL or path to attach")
	cmd.Flags().String("caption", "", "image caption describing the plant")
	return cmd
}

func newCropDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Stop tracking a crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.farm.Crops.Delete(args[0]) {
				return cropNotFound(args[0])
			}
			fmt.Fprintf(a.stdout, "Deleted crop %s\n", args[0])
			return nil
		},
	}
}

func cropNotFound(id string) error {
	return fmt.Errorf("crop %s not found", id)
}
