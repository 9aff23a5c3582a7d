package tasks

import "time"

// Task statuses. A task moves open -> in_review -> done; review can send
// it back to open for rework.
const (
	StatusOpen     = "open"
	StatusInReview = "in_review"
	StatusDone     = "done"
)

// Task is a unit of compliance work inside a project, usually tied to a
// regulation clause.
type Task struct {
	ID           int64      `json:"id"`
	ProjectID    int64      `json:"projectId"`
	RegulationID *int64     `json:"regulationId,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	AssigneeID   *int64     `json:"assigneeId,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ListFilter narrows task listings.
type ListFilter struct {
	ProjectID  int64
	Status     string
	AssigneeID *int64
}

var allowedTransitions = map[string][]string{
	StatusOpen:     {StatusInReview},
	StatusInReview: {StatusDone, StatusOpen},
	StatusDone:     {},
}

// CanTransition reports whether a status move is part of the workflow.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
