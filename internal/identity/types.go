package identity

import (
	"errors"
	"time"

	"taskdeck.org/internal/media"
)

var (
	ErrValidation   = errors.New("identity: invalid input")
	ErrConflict     = errors.New("identity: already exists")
	ErrUnauthorized = errors.New("identity: unauthorized")
	ErrNotFound     = errors.New("identity: not found")

	// ErrResetToken covers both the unknown-token and expired-token cases so
	// the two stay indistinguishable to a caller probing the reset endpoint.
	ErrResetToken = errors.New("identity: reset token invalid or expired")
)

// Identity is one user account. The password hash and reset-token state never
// serialize; responses are safe to return as-is.
type Identity struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	PasswordHash   string      `json:"-"`
	ProfilePicture media.Image `json:"profilePicture"`
	Admin          bool        `json:"isAdmin"`

	ResetTokenHash string     `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`

	// TokenVersion invalidates outstanding session tokens when bumped.
	TokenVersion int `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DirectoryEntry is the public username/picture projection used by the
// task-assignment picker.
type DirectoryEntry struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	ProfilePicture media.Image `json:"profilePicture"`
}

// Ref is the minimal identity projection joined onto owned records at read
// time.
type Ref struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ProfileUpdate describes a partial profile change. Nil/empty fields are left
// untouched; a password change requires both old and new values.
type ProfileUpdate struct {
	Username    string
	OldPassword string
	NewPassword string
	Image       *media.File
}
