package tasks

import "github.com/tgienger/taskly/internal/models"

// Partition splits tasks by status, keeping their relative order.
func Partition(all []models.Task) (pending, completed []models.Task) {
	for _, t := range all {
		if t.Completed() {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

func Pending(all []models.Task) []models.Task {
	p, _ := Partition(all)
	return p
}

func Completed(all []models.Task) []models.Task {
	_, c := Partition(all)
	return c
}

func PendingCount(all []models.Task) int {
	return countStatus(all, models.StatusPending)
}

func CompletedCount(all []models.Task) int {
	return countStatus(all, models.StatusCompleted)
}

func countStatus(all []models.Task, status models.Status) int {
	n := 0
	for _, t := range all {
		if t.Status == status {
			n++
		}
	}
	return n
}
