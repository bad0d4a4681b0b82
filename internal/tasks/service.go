package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/ids"
	"taskdeck.org/internal/media"
	"taskdeck.org/internal/obs"
	"taskdeck.org/internal/policy"
)

// RefResolver maps an identity id to its current Ref. The service uses it to
// validate assignees at creation and reassignment time.
type RefResolver func(ctx context.Context, identityID string) (identity.Ref, error)

// Service applies validation, assignment resolution and creator policy in
// front of the task store.
type Service struct {
	store   Store
	media   media.Store
	resolve RefResolver
	now     func() time.Time
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

// NewService wraps a task store. mediaStore handles task image upload and
// release; resolve validates assignee ids.
func NewService(store Store, mediaStore media.Store, resolve RefResolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("tasks: store is required")
	}
	if resolve == nil {
		return nil, errors.New("tasks: ref resolver is required")
	}
	s := &Service{store: store, media: mediaStore, resolve: resolve, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create stores a new task created by the actor. The assignee must exist and
// may be the actor itself; absent status, priority and due date fall back to
// pending, medium and three days out.
func (s *Service) Create(ctx context.Context, actor auth.Session, in CreateInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if in.AssignedTo == "" {
		return nil, fmt.Errorf("%w: assignedTo is required", ErrValidation)
	}

	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	due := now.Add(DefaultDueIn)
	if in.DueDate != nil {
		due = in.DueDate.UTC()
	}

	image := media.Image{URL: media.DefaultTaskURL}
	if in.Image != nil {
		image, err = s.uploadImage(ctx, actor.Username, *in.Image)
		if err != nil {
			return nil, err
		}
	}

	task := &Task{
		ID:          ids.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     due,
		Image:       image,
		CreatedBy:   identity.Ref{ID: actor.IdentityID, Username: actor.Username},
		AssignedTo:  assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListCreated returns the tasks the actor created.
func (s *Service) ListCreated(ctx context.Context, actor auth.Session) ([]*Task, error) {
	return s.store.ListByCreator(ctx, actor.IdentityID)
}

// ListAssigned returns the tasks assigned to the actor.
func (s *Service) ListAssigned(ctx context.Context, actor auth.Session) ([]*Task, error) {
	return s.store.ListByAssignee(ctx, actor.IdentityID)
}

// Update applies a partial change to a task. Only the creator (or an admin)
// may update; replacing the image releases the previously stored one.
func (s *Service) Update(ctx context.Context, actor auth.Session, id string, upd UpdateInput) (*Task, error) {
	task, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(actor.IdentityID, actor.Admin, task.CreatedBy.ID, policy.OpUpdate) {
		return nil, ErrForbidden
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		task.Title = title
	}
	if upd.Description != nil {
		description := strings.TrimSpace(*upd.Description)
		if description == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", ErrValidation)
		}
		task.Description = description
	}
	if upd.Status != nil {
		status, err := ParseStatus(*upd.Status)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}
	if upd.Priority != nil {
		priority, err := ParsePriority(*upd.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if upd.DueDate != nil {
		task.DueDate = upd.DueDate.UTC()
	}
	if upd.AssignedTo != nil {
		assignee, err := s.resolveAssignee(ctx, *upd.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = assignee
	}
	if upd.Image != nil {
		if task.Image.Stored() {
			s.releaseImage(ctx, task.ID, task.Image.ID)
		}
		image, err := s.uploadImage(ctx, actor.Username, *upd.Image)
		if err != nil {
			return nil, err
		}
		task.Image = image
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task. Only the creator (or an admin) may delete; a stored
// image is released best-effort first.
func (s *Service) Delete(ctx context.Context, actor auth.Session, id string) error {
	task, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccess(actor.IdentityID, actor.Admin, task.CreatedBy.ID, policy.OpDelete) {
		return ErrForbidden
	}
	if task.Image.Stored() {
		s.releaseImage(ctx, task.ID, task.Image.ID)
	}
	return s.store.Delete(ctx, task.ID)
}

func (s *Service) resolveAssignee(ctx context.Context, id string) (identity.Ref, error) {
	if id == "" {
		return identity.Ref{}, fmt.Errorf("%w: assignedTo is required", ErrValidation)
	}
	ref, err := s.resolve(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Ref{}, fmt.Errorf("%w: assignee does not exist", ErrNotFound)
		}
		return identity.Ref{}, err
	}
	return ref, nil
}

func (s *Service) uploadImage(ctx context.Context, username string, upload media.File) (media.Image, error) {
	if s.media == nil {
		return media.Image{}, errors.New("tasks: media store is not configured")
	}
	key := media.ObjectKey(username, "task_images", upload.Filename)
	return s.media.Upload(ctx, key, upload.Data, upload.ContentType)
}

// releaseImage drops a stored object best-effort. A failed release is logged
// and never blocks the task operation.
func (s *Service) releaseImage(ctx context.Context, taskID, imageID string) {
	if s.media == nil {
		return
	}
	if err := s.media.Destroy(ctx, imageID); err != nil {
		obs.LogError("release task image failed", map[string]any{
			"task":     taskID,
			"image_id": imageID,
			"error":    err.Error(),
		})
	}
}
