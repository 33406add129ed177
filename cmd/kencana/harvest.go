package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/kencana-farm/internal/harvest"
)

func newHarvestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Harvest forecasts",
	}
	cmd.AddCommand(
		newHarvestPredictCmd(a),
		newHarvestSummaryCmd(a),
		newHarvestDateCmd(a),
	)
	return cmd
}

func newHarvestPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Forecast the harvest of every crop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preds := a.farm.Predictions()
			return a.print(preds, renderPredictionTable(preds))
		},
	}
}

func newHarvestSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Days to the next harvest and total expected yield",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.farm.Summary()
			return a.print(s, renderSummary(s))
		},
	}
}

func newHarvestDateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "date <planting-date>",
		Short:       "Compute a harvest date from a planting date",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipFarm: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var days *int
			if cmd.Flags().Changed("days") {
				n, _ := cmd.Flags().GetInt("days")
				days = &n
			}
			date, err := harvest.PredictHarvestDate(args[0], days)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, date)
			return nil
		},
	}
	cmd.Flags().Int("days", harvest.DefaultDaysToHarvest, "days from planting to harvest")
	return cmd
}
