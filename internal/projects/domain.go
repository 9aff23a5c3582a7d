package projects

import "time"

// Project statuses. Projects are archived rather than deleted so task and
// evidence history stays reachable.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Project is a compliance program scoped to one or more regulations.
// Project-scope role assignments hang off its ID.
type Project struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	LeadID      *int64    `json:"leadId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
