// Package harvest derives harvest dates, countdowns and yield estimates from
// crop records. Every function is pure.
package harvest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JamesPrial/kencana-farm/internal/crop"
)

// DefaultDaysToHarvest is used when a crop has no expected growing period.
const DefaultDaysToHarvest = 60

// DaysPerStage is the assumed length of each remaining growth stage.
const DaysPerStage = 5

const isoDate = "2006-01-02"

// ParseDate reads a planting date as stored on crops: a calendar date
// (2006-01-02, taken as UTC midnight) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoDate, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// PredictHarvestDate adds expectedDays calendar days to plantingDate and
// returns the result as YYYY-MM-DD. A nil or zero expectedDays means
// DefaultDaysToHarvest.
func PredictHarvestDate(plantingDate string, expectedDays *int) (string, error) {
	planted, err := ParseDate(plantingDate)
	if err != nil {
		return "", err
	}
	days := DefaultDaysToHarvest
	if expectedDays != nil && *expectedDays != 0 {
		days = *expectedDays
	}
	return planted.AddDate(0, 0, days).Format(isoDate), nil
}

// DaysBetween returns the absolute distance between a and b in days,
// rounded up: any non-zero difference counts as at least one day.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

// DaysBetweenISO is DaysBetween for dates accepted by ParseDate.
func DaysBetweenISO(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return DaysBetween(ta, tb), nil
}

// DaysToNext estimates the days left until harvest from a stage index: the
// remaining stages times DaysPerStage, never negative.
func DaysToNext(stage int) int {
	remaining := crop.StageCount - 1 - stage
	return max(remaining*DaysPerStage, 0)
}
