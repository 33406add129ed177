package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/harvest"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	cellStyle      = lipgloss.NewStyle()
	labelStyle     = lipgloss.NewStyle().Bold(true)
	statusStyles   = map[harvest.Status]lipgloss.Style{
		harvest.StatusReady:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		harvest.StatusSoon:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		harvest.StatusUpcoming: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

func renderCropTable(crops []crop.Crop) string {
	if len(crops) == 0 {
		return "No crops found."
	}
	rows := make([][]string, len(crops))
	for i, c := range crops {
		rows[i] = []string{
			c.ID,
			c.Name,
			c.Stage().String(),
			strconv.Itoa(c.HealthOrDefault()) + "%",
			c.Location,
			c.PlantingDate,
			predictedHarvest(c),
		}
	}
	return renderTable([]string{"ID", "Name", "Stage", "Health", "Location", "Planted", "Harvest"}, rows)
}

func renderCropDetails(c crop.Crop) string {
	fields := [][2]string{
		{"ID", c.ID},
		{"Name", c.Name},
		{"Variety", c.Variety},
		{"Stage", c.Stage().String()},
		{"Health", strconv.Itoa(c.HealthOrDefault()) + "%"},
		{"Location", c.Location},
		{"Planted", c.PlantingDate},
		{"Predicted harvest", predictedHarvest(c)},
		{"Last watered", c.LastWatered},
		{"Last fertilized", c.LastFertilized},
		{"Last pesticide", c.LastPesticide},
		{"Expected yield", c.ExpectedYield},
		{"Photos", strconv.Itoa(len(c.Photos))},
		{"Notes", c.Notes},
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		rows = append(rows, []string{labelStyle.Render(f[0]), f[1]})
	}
	return table.New().
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Render()
}

func predictedHarvest(c crop.Crop) string {
	date, err := harvest.PredictHarvestDate(c.PlantingDate, c.ExpectedDaysToHarvest)
	if err != nil {
		return "-"
	}
	return date
}

func renderTaskTable(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		done := ""
		if t.Completed {
			done = "✓"
			if at, ok := t.CompletedTime(); ok {
				done += " " + at.Local().Format("Jan 2 15:04")
			}
		}
		rows[i] = []string{strconv.Itoa(t.ID), done, t.Title, t.Crop, t.Time, string(t.Type)}
	}
	return renderTable([]string{"ID", "Done", "Title", "Crop", "Time", "Type"}, rows)
}

func renderPredictionTable(preds []harvest.Prediction) string {
	if len(preds) == 0 {
		return "No crops to forecast."
	}
	rows := make([][]string, len(preds))
	for i, p := range preds {
		style, ok := statusStyles[p.Status]
		if !ok {
			style = cellStyle
		}
		rows[i] = []string{
			p.Crop,
			p.Section,
			p.HarvestDate,
			strconv.Itoa(p.DaysRemaining),
			p.ExpectedYield,
			strconv.Itoa(p.Confidence) + "%",
			style.Render(string(p.Status)),
		}
	}
	return renderTable([]string{"Crop", "Section", "Harvest", "Days", "Yield", "Confidence", "Status"}, rows)
}

func renderSummary(s harvest.Summary) string {
	return fmt.Sprintf("%s %d days\n%s %d kg",
		labelStyle.Render("Next harvest in:"), s.NextDaysToHarvest,
		labelStyle.Render("Expected yield:"), s.TotalYieldKg)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			return cellStyle
		})
	return t.Render()
}
