// Package notes implements the personal note records: plain title/content
// entries with a completion flag, private to their owner except for admin
// override.
package notes

import (
	"errors"
	"time"

	"taskdeck.org/internal/identity"
)

var (
	ErrValidation = errors.New("notes: invalid input")
	ErrNotFound   = errors.New("notes: not found")
	ErrForbidden  = errors.New("notes: forbidden")
)

// Note is one note record. Owner is joined at read time so responses carry
// the current username.
type Note struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Owner     identity.Ref `json:"user"`
	Completed bool         `json:"completed"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Update describes a partial note change. Nil fields are left untouched.
type Update struct {
	Title     *string
	Content   *string
	Completed *bool
}
