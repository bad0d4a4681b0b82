package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// CascadeTarget is implemented by resource stores that hold records owned by
// an identity. The delete cascade asks each target for the media it must
// release and then for the records to drop.
type CascadeTarget interface {
	ImageRefsFor(ctx context.Context, identityID string) ([]string, error)
	DeleteFor(ctx context.Context, identityID string) error
}

// InMemory implements Store with in-process concurrency safety. Used in
// development mode and in tests; production runs on the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*Identity
	targets []CascadeTarget
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty identity store. The targets receive the
// delete cascade for their resource type.
func NewInMemory(targets ...CascadeTarget) *InMemory {
	return &InMemory{
		byID:    make(map[string]*Identity),
		targets: targets,
	}
}

// AddCascadeTarget registers another cascade target after construction.
// Resource stores resolve usernames through the identity store, so they are
// built second and registered here.
func (s *InMemory) AddCascadeTarget(target CascadeTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, target)
}

func (s *InMemory) Create(ctx context.Context, ident *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == ident.Username {
			return fmt.Errorf("%w: username already exists", ErrConflict)
		}
		if strings.EqualFold(existing.Email, ident.Email) {
			return fmt.Errorf("%w: email already exists", ErrConflict)
		}
	}
	cp := *ident
	s.byID[ident.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.byID {
		if strings.EqualFold(ident.Email, email) {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByUsername(ctx context.Context, username string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.byID {
		if ident.Username == username {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) List(ctx context.Context) ([]*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Identity, 0, len(s.byID))
	for _, ident := range s.byID {
		cp := *ident
		out = append(out, &cp)
	}
	sortByID(out)
	return out, nil
}

func (s *InMemory) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	idents, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DirectoryEntry, 0, len(idents))
	for _, ident := range idents {
		out = append(out, DirectoryEntry{
			ID:             ident.ID,
			Username:       ident.Username,
			ProfilePicture: ident.ProfilePicture,
		})
	}
	return out, nil
}

func (s *InMemory) UpdateProfile(ctx context.Context, ident *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[ident.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range s.byID {
		if id != ident.ID && other.Username == ident.Username {
			return fmt.Errorf("%w: username already exists", ErrConflict)
		}
	}
	stored.Username = ident.Username
	stored.PasswordHash = ident.PasswordHash
	stored.ProfilePicture = ident.ProfilePicture
	stored.UpdatedAt = ident.UpdatedAt
	return nil
}

func (s *InMemory) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	stored.TokenVersion++
	return stored.TokenVersion, nil
}

func (s *InMemory) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	stored.ResetTokenHash = tokenHash
	stored.ResetExpiresAt = &expiresAt
	return nil
}

func (s *InMemory) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.byID {
		if ident.ResetTokenHash == "" || ident.ResetTokenHash != tokenHash {
			continue
		}
		if ident.ResetExpiresAt == nil || now.After(*ident.ResetExpiresAt) {
			break
		}
		cp := *ident
		return &cp, nil
	}
	return nil, ErrResetToken
}

func (s *InMemory) CompletePasswordReset(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	stored.PasswordHash = passwordHash
	stored.ResetTokenHash = ""
	stored.ResetExpiresAt = nil
	stored.TokenVersion++
	return nil
}

func (s *InMemory) TaskImageRefs(ctx context.Context, id string) ([]string, error) {
	var refs []string
	for _, target := range s.targets {
		r, err := target.ImageRefsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}
	return refs, nil
}

func (s *InMemory) DeleteCascade(ctx context.Context, id string) error {
	for _, target := range s.targets {
		if err := target.DeleteFor(ctx, id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// ULIDs sort chronologically, so ordering by id matches creation order.
func sortByID(idents []*Identity) {
	sort.Slice(idents, func(i, j int) bool { return idents[i].ID < idents[j].ID })
}
