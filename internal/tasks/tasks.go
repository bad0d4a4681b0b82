// Package tasks implements assignable work items: titled records with a
// status/priority pair, a due date, an optional stored image and a
// creator/assignee identity pair. Visibility follows the two query views
// (created-by-me, assigned-to-me); update and delete belong to the creator.
package tasks

import (
	"errors"
	"fmt"
	"time"

	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/media"
)

var (
	ErrValidation = errors.New("tasks: invalid input")
	ErrNotFound   = errors.New("tasks: not found")
	ErrForbidden  = errors.New("tasks: forbidden")
)

// Status is the task lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusOnHold     Status = "on-hold"
)

// ParseStatus validates a wire value. Empty means "use the default".
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusPending, nil
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a wire value. Empty means "use the default".
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// DefaultDueIn is added to the creation time when no due date is supplied.
const DefaultDueIn = 72 * time.Hour

// Task is one work item. Creator and assignee are joined at read time so
// responses carry current usernames.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	DueDate     time.Time    `json:"dueDate"`
	Image       media.Image  `json:"image"`
	CreatedBy   identity.Ref `json:"createdBy"`
	AssignedTo  identity.Ref `json:"assignedTo"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CreateInput carries the fields of a new task. Status, Priority and DueDate
// are optional; AssignedTo is a required identity id and may be the creator's
// own.
type CreateInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  string
	Image       *media.File
}

// UpdateInput describes a partial task change. Nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	AssignedTo  *string
	Image       *media.File
}
