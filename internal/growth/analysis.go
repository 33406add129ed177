// Package growth records growth checks on crops and turns the resulting
// advice into reminders.
package growth

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/JamesPrial/kencana-farm/internal/crop"
)

// Analysis is the assessment of one crop photo.
type Analysis struct {
	Health      int      `json:"health"`
	Stage       string   `json:"stage"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Confidence  int      `json:"confidence"`
}

// CaptionConfidence is the confidence reported for caption-derived analyses.
const CaptionConfidence = 78

// ParseCaption derives an analysis from a free-text image caption by
// keyword matching. The first matching health rule wins.
func ParseCaption(caption string) Analysis {
	lower := strings.ToLower(caption)
	a := Analysis{Health: 85, Issues: []string{}, Suggestions: []string{}, Confidence: CaptionConfidence}

	switch {
	case strings.Contains(lower, "green") && strings.Contains(lower, "healthy"):
		a.Health = 95
	case strings.Contains(lower, "yellow") || strings.Contains(lower, "wilting"):
		a.Health = 65
		a.Issues = append(a.Issues, "Plant showing signs of stress")
		a.Suggestions = append(a.Suggestions, "Water the plant thoroughly")
	case strings.Contains(lower, "brown") || strings.Contains(lower, "damaged"):
		a.Health = 45
		a.Issues = append(a.Issues, "Significant damage detected")
		a.Suggestions = append(a.Suggestions, "Check for pests or disease", "Consider applying pesticide")
	case strings.Contains(lower, "flower"):
		a.Health = 80
		a.Suggestions = append(a.Suggestions, "Plant is flowering - reduce nitrogen fertilizer")
	case strings.Contains(lower, "fruit"):
		a.Health = 90
		a.Suggestions = append(a.Suggestions, "Fruits developing well - maintain regular watering")
	}

	if len(a.Suggestions) == 0 {
		a.Suggestions = append(a.Suggestions, "Continue regular maintenance", "Monitor for pests weekly")
	}
	a.Stage = captionStage(lower).String()
	return a
}

func captionStage(lower string) crop.Stage {
	hasFlower := strings.Contains(lower, "flower")
	switch {
	case strings.Contains(lower, "seed") || strings.Contains(lower, "sprout"):
		return crop.Planted
	case strings.Contains(lower, "leaf") && !hasFlower:
		return crop.Growing
	case hasFlower:
		return crop.Flowering
	case strings.Contains(lower, "fruit"):
		return crop.Fruiting
	default:
		return crop.Growing
	}
}

var simulated = []Analysis{
	{
		Health:      85,
		Stage:       "Growing",
		Issues:      []string{},
		Suggestions: []string{"Continue regular watering", "Monitor for pests"},
		Confidence:  85,
	},
	{
		Health:      72,
		Stage:       "Growing",
		Issues:      []string{"Slight yellowing on lower leaves"},
		Suggestions: []string{"Apply nitrogen fertilizer", "Increase watering frequency"},
		Confidence:  80,
	},
	{
		Health:      90,
		Stage:       "Flowering",
		Issues:      []string{},
		Suggestions: []string{"Reduce nitrogen, increase phosphorus", "Support heavy flower clusters"},
		Confidence:  88,
	},
	{
		Health:      65,
		Stage:       "Growing",
		Issues:      []string{"Signs of water stress", "Leaf curl detected"},
		Suggestions: []string{"Water immediately", "Add mulch to retain moisture"},
		Confidence:  75,
	},
}

// Simulated returns one of the canned analyses used when no vision service
// is available. pick receives the number of choices and returns an index;
// nil picks uniformly at random. Out-of-range indexes wrap around.
func Simulated(pick func(n int) int) Analysis {
	if pick == nil {
		pick = rand.IntN
	}
	i := pick(len(simulated)) % len(simulated)
	if i < 0 {
		i += len(simulated)
	}
	a := simulated[i]
	a.Issues = slices.Clone(a.Issues)
	a.Suggestions = slices.Clone(a.Suggestions)
	return a
}
