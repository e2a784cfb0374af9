package tasks

import (
	"bytes"
	"encoding/json"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

type Task struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ReminderAt   *time.Time `json:"reminderAt,omitempty"`
	ReminderSent bool       `json:"reminderSent"`
	Priority     Priority   `json:"priority"`
	Tags         []string   `json:"tags"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewTask carries the caller-supplied fields for Create. Zero values for
// Priority and Status get the documented defaults.
type NewTask struct {
	Title       string
	Description string
	DueDate     *time.Time
	ReminderAt  *time.Time
	Priority    Priority
	Tags        []string
	Status      Status
}

// OptionalTime distinguishes "field absent" from "field set to null" in a
// partial update. Set is true whenever the field appeared in the JSON body,
// even as null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// TaskPatch is a field-level partial update. Nil pointers mean "leave
// unchanged". Supplying ReminderAt, with any value including null, resets
// ReminderSent; ReminderSent itself is not patchable, only the reminder
// worker flips it.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     OptionalTime
	ReminderAt  OptionalTime
	Priority    *Priority
	Tags        *[]string
	Status      *Status
}
