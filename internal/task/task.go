// Package task defines the task entity and the pure command operations
// over an in-memory task collection.
package task

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Status represents a task status. The persisted form is a two-token
// enumeration rather than a boolean so that rows stay greppable.
type Status string

const (
	StatusTodo Status = "TODO"
	StatusDone Status = "DONE"
)

// Date is a calendar day without a time component. The zero value means
// "no date set".
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// String renders the date as YYYY-MM-DD, or "" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string, treating "" as unset.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task represents a single tracked task.
//
// ID is dense and 1-based over the visible subset after renumbering;
// hidden rows keep unique ids past the visible range so that diagnostic
// commands can still address them. Visible=false is a soft delete: the
// row stays in storage but leaves default listings and id assignment.
type Task struct {
	ID        int       `json:"id"`
	Status    Status    `json:"status"`
	Desc      string    `json:"desc"`
	Scheduled Date      `json:"scheduled,omitzero"`
	Deadline  Date      `json:"deadline,omitzero"`
	Created   time.Time `json:"created"`
	Visible   bool      `json:"is_visible"`
	Pinned    bool      `json:"is_pin"`
	DoneDate  Date      `json:"done_date,omitzero"`
}

// Done reports whether the task has been completed.
func (t *Task) Done() bool {
	return t.Status == StatusDone
}
