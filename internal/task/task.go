// Package task manages the persisted reminder collection, including the
// retention window for completed reminders.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Type categorizes a reminder.
type Type string

const (
	TypeWater     Type = "water"
	TypePrune     Type = "prune"
	TypeFertilize Type = "fertilize"
	TypeOther     Type = "other"

	// Types used by the reminders screen of the alternate app variant.
	TypeGeneral  Type = "general"
	TypeCropCare Type = "crop_care"
	TypeHarvest  Type = "harvest"
)

var knownTypes = []Type{
	TypeWater, TypePrune, TypeFertilize, TypeOther,
	TypeGeneral, TypeCropCare, TypeHarvest,
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, k := range knownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseType converts s (any case) to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown task type %q", s)
	}
	return t, nil
}

// ClassifySuggestion picks the reminder type for a piece of crop-care advice.
func ClassifySuggestion(text string) Type {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "water"):
		return TypeWater
	case strings.Contains(lower, "fertil"):
		return TypeFertilize
	default:
		return TypeOther
	}
}

// Task is a reminder. The JSON layout matches the stored collection format;
// CompletedAt is in Unix milliseconds.
type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Crop        string `json:"crop"`
	Time        string `json:"time"`
	Type        Type   `json:"type"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
}

// CompletedTime returns when the task was completed, if recorded.
func (t Task) CompletedTime() (time.Time, bool) {
	if t.CompletedAt == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.CompletedAt), true
}

func (t Task) clone() Task {
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	return t
}

// Draft holds the caller-supplied fields of a new task.
type Draft struct {
	Title string `json:"title"`
	Crop  string `json:"crop"`
	Time  string `json:"time"`
	Type  Type   `json:"type"`
}

// Patch lists the fields to overwrite; nil fields are left alone.
// Completion changes go through Collection.ToggleComplete so that
// completedAt stays consistent.
type Patch struct {
	Title *string `json:"title,omitempty"`
	Crop  *string `json:"crop,omitempty"`
	Time  *string `json:"time,omitempty"`
	Type  *Type   `json:"type,omitempty"`
}

// Apply returns t with the patch merged in.
func (p Patch) Apply(t Task) Task {
	t = t.clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Crop != nil {
		t.Crop = *p.Crop
	}
	if p.Time != nil {
		t.Time = *p.Time
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}

// DefaultTasks returns the reminders a new installation starts with.
func DefaultTasks() []Task {
	return []Task{
		{ID: 1, Title: "Water Apple Trees", Crop: "Section A", Time: "09:00", Type: TypeWater},
		{ID: 2, Title: "Prune Orange Trees", Crop: "Section B", Time: "11:00", Type: TypePrune},
		{ID: 3, Title: "Fertilize Mangoes", Crop: "Section C", Time: "15:00", Type: TypeFertilize, Completed: true},
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TypePtr returns a pointer to t.
func TypePtr(t Type) *Type { return &t }
