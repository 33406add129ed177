// Package crop manages the persisted crop collection.
package crop

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Stage is a crop's growth phase.
type Stage int

const (
	Planted Stage = iota
	Growing
	Flowering
	Fruiting
	Ready
)

// StageCount is the number of growth stages.
const StageCount = 5

var stageNames = [StageCount]string{"Planted", "Growing", "Flowering", "Fruiting", "Ready"}

func (s Stage) String() string {
	if s < Planted || s > Ready {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Next returns the following stage, or s itself once Ready.
func (s Stage) Next() Stage {
	if s >= Ready {
		return Ready
	}
	return s + 1
}

// ParseStage accepts a stage name (any case) or index.
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(Planted) || n > int(Ready) {
			return 0, fmt.Errorf("stage index %d out of range 0-%d", n, StageCount-1)
		}
		return Stage(n), nil
	}
	for i, name := range stageNames {
		if strings.EqualFold(name, s) {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// DefaultHealth is the health of a crop that was never assessed.
const DefaultHealth = 100

// Crop is one planting tracked by the farmer. The JSON layout matches the
// stored collection format.
type Crop struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Variety               string   `json:"variety,omitempty"`
	PlantingDate          string   `json:"plantingDate"`
	ExpectedDaysToHarvest *int     `json:"expectedDaysToHarvest,omitempty"`
	Location              string   `json:"location,omitempty"`
	LastWatered           string   `json:"lastWatered,omitempty"`
	LastFertilized        string   `json:"lastFertilized,omitempty"`
	LastPesticide         string   `json:"lastPesticide,omitempty"`
	Photos                []string `json:"photos,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
	StageIndex            *int     `json:"stageIndex,omitempty"`
	Health                *int     `json:"health,omitempty"`
	ExpectedYield         string   `json:"expectedYield,omitempty"`
	ConfidenceLevel       *int     `json:"confidenceLevel,omitempty"`
	EstimatedHarvestDate  string   `json:"estimatedHarvestDate,omitempty"`
}

// Stage returns the crop's stage, Planted when unset. Out-of-range stored
// values are clamped.
func (c Crop) Stage() Stage {
	if c.StageIndex == nil {
		return Planted
	}
	return min(max(Stage(*c.StageIndex), Planted), Ready)
}

// HealthOrDefault returns the crop's health, DefaultHealth when unset.
func (c Crop) HealthOrDefault() int {
	if c.Health == nil {
		return DefaultHealth
	}
	return *c.Health
}

// LatestPhoto returns the most recently added photo.
func (c Crop) LatestPhoto() (string, bool) {
	if len(c.Photos) == 0 {
		return "", false
	}
	return c.Photos[len(c.Photos)-1], true
}

func (c Crop) clone() Crop {
	c.Photos = slices.Clone(c.Photos)
	c.ExpectedDaysToHarvest = cloneInt(c.ExpectedDaysToHarvest)
	c.StageIndex = cloneInt(c.StageIndex)
	c.Health = cloneInt(c.Health)
	c.ConfidenceLevel = cloneInt(c.ConfidenceLevel)
	return c
}

// Patch lists the fields to overwrite; nil fields are left alone.
//
// There is no stage field: a crop only moves forward through
// Collection.AdvanceStage and Collection.Observe.
type Patch struct {
	Name                  *string  `json:"name,omitempty"`
	Variety               *string  `json:"variety,omitempty"`
	PlantingDate          *string  `json:"plantingDate,omitempty"`
	ExpectedDaysToHarvest *int     `json:"expectedDaysToHarvest,omitempty"`
	Location              *string  `json:"location,omitempty"`
	LastWatered           *string  `json:"lastWatered,omitempty"`
	LastFertilized        *string  `json:"lastFertilized,omitempty"`
	LastPesticide         *string  `json:"lastPesticide,omitempty"`
	Photos                []string `json:"photos,omitempty"`
	Notes                 *string  `json:"notes,omitempty"`
	Health                *int     `json:"health,omitempty"`
	ExpectedYield         *string  `json:"expectedYield,omitempty"`
	ConfidenceLevel       *int     `json:"confidenceLevel,omitempty"`
	EstimatedHarvestDate  *string  `json:"estimatedHarvestDate,omitempty"`
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Variety == nil && p.PlantingDate == nil &&
		p.ExpectedDaysToHarvest == nil && p.Location == nil && p.LastWatered == nil &&
		p.LastFertilized == nil && p.LastPesticide == nil && p.Photos == nil &&
		p.Notes == nil && p.Health == nil && p.ExpectedYield == nil &&
		p.ConfidenceLevel == nil && p.EstimatedHarvestDate == nil
}

// Apply returns c with the patch merged in.
func (p Patch) Apply(c Crop) Crop {
	c = c.clone()
	setString(&c.Name, p.Name)
	setString(&c.Variety, p.Variety)
	setString(&c.PlantingDate, p.PlantingDate)
	setString(&c.Location, p.Location)
	setString(&c.LastWatered, p.LastWatered)
	setString(&c.LastFertilized, p.LastFertilized)
	setString(&c.LastPesticide, p.LastPesticide)
	setString(&c.Notes, p.Notes)
	setString(&c.ExpectedYield, p.ExpectedYield)
	setString(&c.EstimatedHarvestDate, p.EstimatedHarvestDate)
	if p.ExpectedDaysToHarvest != nil {
		c.ExpectedDaysToHarvest = cloneInt(p.ExpectedDaysToHarvest)
	}
	if p.Health != nil {
		c.Health = cloneInt(p.Health)
	}
	if p.ConfidenceLevel != nil {
		c.ConfidenceLevel = cloneInt(p.ConfidenceLevel)
	}
	if p.Photos != nil {
		c.Photos = slices.Clone(p.Photos)
	}
	return c
}

// Observation is the outcome of one growth check: the crop moves one stage
// forward, takes the assessed health and keeps the photo.
type Observation struct {
	Health int
	Photo  string
}

func equal(a, b Crop) bool {
	return reflect.DeepEqual(a, b)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
