package harvest

import (
	"regexp"
	"strconv"
	"time"

	"github.com/JamesPrial/kencana-farm/internal/crop"
)

// StockImage is shown for crops without photos.
const StockImage = "https://images.unsplash.com/photo-1625246333195-78d9c38ad576?crop=entropy&cs=tinysrgb&fit=max&fm=jpg&ixlib=rb-4.1.0&q=80&w=1080"

// DisplayDate is the layout of Prediction.HarvestDate.
const DisplayDate = "Jan 2, 2006"

// Status buckets a prediction by how close the harvest is.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusSoon     Status = "soon"
	StatusReady    Status = "ready"
)

// SoonThreshold is the countdown at or below which a harvest is "soon".
const SoonThreshold = 5

// Prediction is the harvest forecast for one crop.
type Prediction struct {
	CropID        string `json:"id"`
	Crop          string `json:"crop"`
	Section       string `json:"section"`
	HarvestDate   string `json:"harvestDate"`
	DaysRemaining int    `json:"daysRemaining"`
	ExpectedYield string `json:"expectedYield"`
	Confidence    int    `json:"confidence"`
	Image         string `json:"image"`
	Status        Status `json:"status"`
}

// Predict forecasts the harvest of c as seen at now. Values stored on the
// crop (expected yield, confidence) take precedence over estimates.
func Predict(c crop.Crop, now time.Time) Prediction {
	stage := int(c.Stage())
	days := DaysToNext(stage)

	status := StatusUpcoming
	switch {
	case stage >= crop.StageCount-1:
		status = StatusReady
	case days <= SoonThreshold:
		status = StatusSoon
	}

	section := c.Location
	if section == "" {
		section = "Unknown"
	}

	expected := c.ExpectedYield
	if expected == "" {
		expected = EstimateYield(c.Name, stage)
	}

	confidence := min(70+stage*6, 95)
	if c.ConfidenceLevel != nil {
		confidence = *c.ConfidenceLevel
	}

	image, ok := c.LatestPhoto()
	if !ok {
		image = StockImage
	}

	return Prediction{
		CropID:        c.ID,
		Crop:          c.Name,
		Section:       section,
		HarvestDate:   now.AddDate(0, 0, days).Format(DisplayDate),
		DaysRemaining: days,
		ExpectedYield: expected,
		Confidence:    confidence,
		Image:         image,
		Status:        status,
	}
}

// PredictAll forecasts every crop, preserving order.
func PredictAll(crops []crop.Crop, now time.Time) []Prediction {
	out := make([]Prediction, 0, len(crops))
	for _, c := range crops {
		out = append(out, Predict(c, now))
	}
	return out
}

// Summary aggregates predictions.
type Summary struct {
	// NextDaysToHarvest is the shortest countdown, 0 without predictions.
	NextDaysToHarvest int `json:"nextDaysToHarvest"`
	// TotalYieldKg sums the first number of every expected yield; "TBD"
	// counts as nothing.
	TotalYieldKg int `json:"totalYield"`
}

var firstNumber = regexp.MustCompile(`\d+`)

// Summarize aggregates predictions for the dashboard.
func Summarize(preds []Prediction) Summary {
	if len(preds) == 0 {
		return Summary{}
	}

	s := Summary{NextDaysToHarvest: preds[0].DaysRemaining}
	for _, p := range preds {
		s.NextDaysToHarvest = min(s.NextDaysToHarvest, p.DaysRemaining)
		if m := firstNumber.FindString(p.ExpectedYield); m != "" {
			n, err := strconv.Atoi(m)
			if err == nil {
				s.TotalYieldKg += n
			}
		}
	}
	return s
}
