package task

import "time"

// ExpiryWindow is how long a completed task stays visible.
const ExpiryWindow = 48 * time.Hour

// Expired reports whether t was completed at least ExpiryWindow before now.
// Completed tasks without a completion time never expire.
func Expired(t Task, now time.Time) bool {
	if !t.Completed || t.CompletedAt == nil {
		return false
	}
	return now.UnixMilli()-*t.CompletedAt >= ExpiryWindow.Milliseconds()
}

// Visible returns the tasks of tasks that have not expired at now, in order.
// It does not modify tasks.
func Visible(tasks []Task, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !Expired(t, now) {
			out = append(out, t.clone())
		}
	}
	return out
}
