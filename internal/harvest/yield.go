package harvest

import (
	"fmt"
	"math"
	"strings"

	"github.com/JamesPrial/kencana-farm/internal/crop"
)

// DefaultBaseYield is the base yield in kg of crops not in the yield table.
const DefaultBaseYield = 300

// baseYields is searched in order; the first match wins.
var baseYields = []struct {
	name string
	kg   int
}{
	{"apple", 500},
	{"mango", 800},
	{"orange", 600},
	{"watermelon", 300},
	{"durian", 400},
	{"papaya", 200},
	{"banana", 350},
	{"coconut", 450},
	{"avocado", 250},
}

// BaseYield returns the full-harvest yield in kg for a crop name. A table
// entry matches when the lower-cased name contains it, or when it contains
// the name's first word.
func BaseYield(name string) int {
	lower := strings.ToLower(name)
	first := strings.Split(lower, " ")[0]
	for _, e := range baseYields {
		if strings.Contains(lower, e.name) || strings.Contains(e.name, first) {
			return e.kg
		}
	}
	return DefaultBaseYield
}

// EstimateYield returns the expected yield as "<n> kg", or "TBD" before the
// crop flowers. The base yield is scaled to 60% while flowering, 80% while
// fruiting and 100% once ready.
func EstimateYield(name string, stage int) string {
	if stage < int(crop.Flowering) {
		return "TBD"
	}
	multiplier := 1.0
	switch crop.Stage(stage) {
	case crop.Flowering:
		multiplier = 0.6
	case crop.Fruiting:
		multiplier = 0.8
	}
	return fmt.Sprintf("%d kg", int(math.Round(float64(BaseYield(name))*multiplier)))
}
