package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/ids"
	"taskdeck.org/internal/policy"
)

// Service applies validation and ownership policy in front of the note store.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wraps a note store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new note owned by the actor.
func (s *Service) Create(ctx context.Context, actor auth.Session, title, content string) (*Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	now := s.now().UTC()
	note := &Note{
		ID:        ids.New(),
		Title:     title,
		Content:   content,
		Owner:     identity.Ref{ID: actor.IdentityID, Username: actor.Username},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// ListMine returns the actor's own notes. Admins see only their own here
// too; the admin override applies to record-level access, not listings.
func (s *Service) ListMine(ctx context.Context, actor auth.Session) ([]*Note, error) {
	return s.store.ListByOwner(ctx, actor.IdentityID)
}

// Get loads one note, enforcing ownership.
func (s *Service) Get(ctx context.Context, actor auth.Session, id string) (*Note, error) {
	note, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor.IdentityID, actor.Admin, note.Owner.ID, policy.OpRead) {
		return nil, ErrForbidden
	}
	return note, nil
}

// Update applies a partial change to a note, enforcing ownership.
func (s *Service) Update(ctx context.Context, actor auth.Session, id string, upd Update) (*Note, error) {
	note, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor.IdentityID, actor.Admin, note.Owner.ID, policy.OpUpdate) {
		return nil, ErrForbidden
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		note.Title = title
	}
	if upd.Content != nil {
		content := strings.TrimSpace(*upd.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		note.Content = content
	}
	if upd.Completed != nil {
		note.Completed = *upd.Completed
	}

	note.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note, enforcing ownership.
func (s *Service) Delete(ctx context.Context, actor auth.Session, id string) error {
	note, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccess(actor.IdentityID, actor.Admin, note.Owner.ID, policy.OpDelete) {
		return ErrForbidden
	}
	return s.store.Delete(ctx, note.ID)
}
