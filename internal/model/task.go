// SPDX-License-Identifier: MIT
package model

import "time"

// Task is the persisted job definition + lifecycle row, per spec.md §3.
type Task struct {
	ID               int64
	UserID           int64
	Command          string
	Arguments        []string
	WorkingDirectory string
	UID              int
	GID              int
	Nice             int
	Limits           Limits
	StartTime        *time.Time
	EndTime          *time.Time
}

// State is the task lifecycle state derived from StartTime/EndTime.
type State int

const (
	StatePending State = iota
	StateRunning
	StateFinished
)

// ComputeState derives the lifecycle state per spec.md §3: pending while
// StartTime is unset, running while StartTime is set and EndTime is not,
// finished once EndTime is set.
func (t Task) ComputeState() State {
	switch {
	case t.EndTime != nil:
		return StateFinished
	case t.StartTime != nil:
		return StateRunning
	default:
		return StatePending
	}
}

// TaskEdit is the partial row accepted by editTask. AdminOnlyFields are
// everything except Nice and Arguments.
type TaskEdit struct {
	Command          *string
	Arguments        []string
	WorkingDirectory *string
	UID              *int
	GID              *int
	Nice             *int
	Limits           *Limits
}

// DropNonAdminFieldsTask projects a TaskEdit down to the fields a non-admin
// owner may touch on their own pending task: Arguments and Nice.
func DropNonAdminFieldsTask(e TaskEdit) TaskEdit {
	return TaskEdit{Arguments: e.Arguments, Nice: e.Nice}
}
