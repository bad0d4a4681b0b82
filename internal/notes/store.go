package notes

import "context"

// Store describes note persistence. Missing records map to ErrNotFound; the
// Owner ref on returned notes reflects the owning identity's current
// username.
type Store interface {
	Create(ctx context.Context, note *Note) error
	Find(ctx context.Context, id string) (*Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id string) error
}
