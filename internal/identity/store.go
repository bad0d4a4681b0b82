package identity

import (
	"context"
	"time"
)

// Store describes persistence operations required by the account lifecycle.
// Uniqueness of username and email is the store's responsibility: Create and
// UpdateProfile return ErrConflict on collision, missing records map to
// ErrNotFound.
type Store interface {
	Create(ctx context.Context, ident *Identity) error
	Find(ctx context.Context, id string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)
	Directory(ctx context.Context) ([]DirectoryEntry, error)

	// UpdateProfile persists username, password hash and profile picture.
	UpdateProfile(ctx context.Context, ident *Identity) error

	// BumpTokenVersion increments the identity's token version and returns
	// the new value. Outstanding session tokens die with the old one.
	BumpTokenVersion(ctx context.Context, id string) (int, error)

	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// FindByResetToken resolves a stored token hash whose expiry is still in
	// the future; expired or unknown hashes map to ErrResetToken.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error)

	// CompletePasswordReset writes the new hash, clears the reset token pair
	// and bumps the token version in a single statement, making the token
	// single-use.
	CompletePasswordReset(ctx context.Context, id, passwordHash string) error

	// TaskImageRefs returns the stored media ids of every task the identity
	// created or is assigned to, so the cascade can release them.
	TaskImageRefs(ctx context.Context, id string) ([]string, error)

	// DeleteCascade removes the identity's notes, every task it created or is
	// assigned to, and finally the identity itself, inside one transaction.
	DeleteCascade(ctx context.Context, id string) error
}
