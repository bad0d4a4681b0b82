package notes

import (
	"context"
	"sort"
	"sync"

	"taskdeck.org/internal/identity"
)

// RefResolver maps an identity id to its current Ref. The in-memory store
// resolves owners on every read so renamed users show up correctly, matching
// the join the Postgres store performs.
type RefResolver func(ctx context.Context, identityID string) (identity.Ref, error)

// InMemory implements Store with in-process concurrency safety. It also
// serves the identity delete cascade as a target.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*Note
	resolve RefResolver
}

var (
	_ Store                  = (*InMemory)(nil)
	_ identity.CascadeTarget = (*InMemory)(nil)
)

// NewInMemory creates an empty note store. resolve may be nil, in which case
// the owner ref stored at creation time is returned as-is.
func NewInMemory(resolve RefResolver) *InMemory {
	return &InMemory{byID: make(map[string]*Note), resolve: resolve}
}

func (s *InMemory) Create(ctx context.Context, note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *note
	s.byID[note.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Note, error) {
	s.mu.RLock()
	note, ok := s.byID[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	cp := *note
	s.mu.RUnlock()
	return s.withOwner(ctx, &cp)
}

func (s *InMemory) ListByOwner(ctx context.Context, ownerID string) ([]*Note, error) {
	s.mu.RLock()
	out := make([]*Note, 0)
	for _, note := range s.byID {
		if note.Owner.ID == ownerID {
			cp := *note
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i, note := range out {
		resolved, err := s.withOwner(ctx, note)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[note.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.Completed = note.Completed
	stored.UpdatedAt = note.UpdatedAt
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

// ImageRefsFor is part of the identity cascade. Notes carry no media.
func (s *InMemory) ImageRefsFor(ctx context.Context, identityID string) ([]string, error) {
	return nil, nil
}

// DeleteFor drops every note owned by the identity.
func (s *InMemory) DeleteFor(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, note := range s.byID {
		if note.Owner.ID == identityID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *InMemory) withOwner(ctx context.Context, note *Note) (*Note, error) {
	if s.resolve == nil {
		return note, nil
	}
	ref, err := s.resolve(ctx, note.Owner.ID)
	if err != nil {
		return nil, err
	}
	note.Owner = ref
	return note, nil
}
