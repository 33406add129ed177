package crop

import (
	"errors"
	"fmt"
)

// Ranges of the numeric crop fields.
const (
	MinPercent       = 0
	MaxPercent       = 100
	MinDaysToHarvest = 1
)

// Validate reports the fields of c outside their allowed ranges. The id is
// not checked; see ValidateCollection.
func (c Crop) Validate() error {
	if c.StageIndex != nil && (*c.StageIndex < int(Planted) || *c.StageIndex > int(Ready)) {
		return fmt.Errorf("stageIndex must be between %d and %d, got %d", Planted, Ready, *c.StageIndex)
	}
	return checkRanges(c.ExpectedDaysToHarvest, c.Health, c.ConfidenceLevel)
}

// Validate reports the fields p would set outside their allowed ranges.
func (p Patch) Validate() error {
	return checkRanges(p.ExpectedDaysToHarvest, p.Health, p.ConfidenceLevel)
}

// ValidateCollection checks every crop and requires non-empty, unique ids.
func ValidateCollection(crops []Crop) error {
	seen := make(map[string]bool, len(crops))
	for i, c := range crops {
		if c.ID == "" {
			return fmt.Errorf("crop %d: missing id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("crop %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
		if err := c.Validate(); err != nil {
			return fmt.Errorf("crop %q: %w", c.ID, err)
		}
	}
	return nil
}

func checkRanges(days, health, confidence *int) error {
	var errs []error
	if days != nil && *days < MinDaysToHarvest {
		errs = append(errs, fmt.Errorf("expectedDaysToHarvest must be at least %d, got %d", MinDaysToHarvest, *days))
	}
	if health != nil && (*health < MinPercent || *health > MaxPercent) {
		errs = append(errs, fmt.Errorf("health must be between %d and %d, got %d", MinPercent, MaxPercent, *health))
	}
	if confidence != nil && (*confidence < MinPercent || *confidence > MaxPercent) {
		errs = append(errs, fmt.Errorf("confidenceLevel must be between %d and %d, got %d", MinPercent, MaxPercent, *confidence))
	}
	return errors.Join(errs...)
}
