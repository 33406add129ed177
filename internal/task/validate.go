package task

import "fmt"

// ValidateCollection requires positive, unique ids and known types.
func ValidateCollection(tasks []Task) error {
	seen := make(map[int]bool, len(tasks))
	for i, t := range tasks {
		if t.ID < 1 {
			return fmt.Errorf("task %d: id must be positive, got %d", i, t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("task %d: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = true
		if !t.Type.Valid() {
			return fmt.Errorf("task %d: unknown type %q", t.ID, t.Type)
		}
	}
	return nil
}
