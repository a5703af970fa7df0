package models

import "time"

// ActivityKind distinguishes the two record types that count as activity.
type ActivityKind string

const (
	ActivityTask  ActivityKind = "task"
	ActivityEvent ActivityKind = "event"
)

// Activity is a Task or Event attached to an opportunity. Status is only
// present on tasks; events carry none.
type Activity struct {
	Kind         ActivityKind `json:"kind"`
	Subject      string       `json:"subject"`
	Status       *string      `json:"status,omitempty"`
	ActivityDate time.Time    `json:"activity_date"`
	Description  string       `json:"description"`
	CreatedDate  time.Time    `json:"created_date"`
}
