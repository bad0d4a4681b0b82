package tasks

import (
	"context"
	"sort"
	"sync"

	"taskdeck.org/internal/identity"
)

// InMemory implements Store with in-process concurrency safety. It also
// serves the identity delete cascade as a target: deleting an account drops
// the tasks it created and the tasks assigned to it, and surrenders their
// stored images for release.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*Task
	resolve RefResolver
}

var (
	_ Store                  = (*InMemory)(nil)
	_ identity.CascadeTarget = (*InMemory)(nil)
)

// NewInMemory creates an empty task store. resolve may be nil, in which case
// the refs stored at write time are returned as-is.
func NewInMemory(resolve RefResolver) *InMemory {
	return &InMemory{byID: make(map[string]*Task), resolve: resolve}
}

func (s *InMemory) Create(ctx context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.byID[task.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	task, ok := s.byID[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	cp := *task
	s.mu.RUnlock()
	return s.withRefs(ctx, &cp)
}

func (s *InMemory) ListByCreator(ctx context.Context, creatorID string) ([]*Task, error) {
	return s.list(ctx, func(t *Task) bool { return t.CreatedBy.ID == creatorID })
}

func (s *InMemory) ListByAssignee(ctx context.Context, assigneeID string) ([]*Task, error) {
	return s.list(ctx, func(t *Task) bool { return t.AssignedTo.ID == assigneeID })
}

func (s *InMemory) list(ctx context.Context, match func(*Task) bool) ([]*Task, error) {
	s.mu.RLock()
	out := make([]*Task, 0)
	for _, task := range s.byID {
		if match(task) {
			cp := *task
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i, task := range out {
		resolved, err := s.withRefs(ctx, task)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[task.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.Status = task.Status
	stored.Priority = task.Priority
	stored.DueDate = task.DueDate
	stored.Image = task.Image
	stored.AssignedTo = task.AssignedTo
	stored.UpdatedAt = task.UpdatedAt
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// ImageRefsFor is part of the identity cascade: the stored image ids of every
// task the identity created or is assigned to.
func (s *InMemory) ImageRefsFor(ctx context.Context, identityID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var refs []string
	for _, task := range s.byID {
		if (task.CreatedBy.ID == identityID || task.AssignedTo.ID == identityID) && task.Image.Stored() {
			refs = append(refs, task.Image.ID)
		}
	}
	return refs, nil
}

// DeleteFor drops every task the identity created or is assigned to.
func (s *InMemory) DeleteFor(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.byID {
		if task.CreatedBy.ID == identityID || task.AssignedTo.ID == identityID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *InMemory) withRefs(ctx context.Context, task *Task) (*Task, error) {
	if s.resolve == nil {
		return task, nil
	}
	creator, err := s.resolve(ctx, task.CreatedBy.ID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.resolve(ctx, task.AssignedTo.ID)
	if err != nil {
		return nil, err
	}
	task.CreatedBy = creator
	task.AssignedTo = assignee
	return task, nil
}
