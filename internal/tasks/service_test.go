package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/media"
)

var (
	alice = auth.Session{IdentityID: "01ALICE", Username: "alice"}
	bob   = auth.Session{IdentityID: "01BOB", Username: "bob"}
	carol = auth.Session{IdentityID: "01CAROL", Username: "carol"}
	admin = auth.Session{IdentityID: "01ADMIN", Username: "admin", Admin: true}
)

var knownUsers = map[string]string{
	alice.IdentityID: "alice",
	bob.IdentityID:   "bob",
	carol.IdentityID: "carol",
	admin.IdentityID: "admin",
}

func resolveKnown(ctx context.Context, id string) (identity.Ref, error) {
	username, ok := knownUsers[id]
	if !ok {
		return identity.Ref{}, identity.ErrNotFound
	}
	return identity.Ref{ID: id, Username: username}, nil
}

type fakeMedia struct {
	mu        sync.Mutex
	uploads   []string
	destroyed []string
}

func (f *fakeMedia) Upload(ctx context.Context, key string, data []byte, contentType string) (media.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	return media.Image{ID: key, URL: "https://media.test/" + key}, nil
}

func (f *fakeMedia) Destroy(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, id)
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeMedia) {
	t.Helper()
	mediaStore := &fakeMedia{}
	svc, err := NewService(NewInMemory(resolveKnown), mediaStore, resolveKnown, opts...)
	require.NoError(t, err)
	return svc, mediaStore
}

func strPtr(s string) *string { return &s }

func TestCreateDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }))

	task, err := svc.Create(context.Background(), alice, CreateInput{
		Title:       "Ship release",
		Description: "cut the tag",
		AssignedTo:  bob.IdentityID,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, now.Add(72*time.Hour), task.DueDate)
	assert.Equal(t, media.DefaultTaskURL, task.Image.URL)
	assert.False(t, task.Image.Stored())
	assert.Equal(t, identity.Ref{ID: alice.IdentityID, Username: "alice"}, task.CreatedBy)
	assert.Equal(t, identity.Ref{ID: bob.IdentityID, Username: "bob"}, task.AssignedTo)
}

func TestCreateExplicitFields(t *testing.T) {
	svc, mediaStore := newTestService(t)
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	task, err := svc.Create(context.Background(), alice, CreateInput{
		Title:       "Fix login",
		Description: "cookie flags",
		Status:      "in-progress",
		Priority:    "high",
		DueDate:     &due,
		AssignedTo:  alice.IdentityID,
		Image:       &media.File{Filename: "shot.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, task.Status)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, due, task.DueDate)
	assert.True(t, task.Image.Stored())
	require.Len(t, mediaStore.uploads, 1)
	assert.Contains(t, mediaStore.uploads[0], "users/alice/task_images/shot")
	// Self-assignment is allowed.
	assert.Equal(t, task.CreatedBy, task.AssignedTo)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, CreateInput{Description: "d", AssignedTo: bob.IdentityID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", Status: "archived", AssignedTo: bob.IdentityID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", Priority: "urgent", AssignedTo: bob.IdentityID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", AssignedTo: "01GHOST"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewsAreQueryScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", AssignedTo: bob.IdentityID})
	require.NoError(t, err)

	created, err := svc.ListCreated(ctx, alice)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, task.ID, created[0].ID)

	assigned, err := svc.ListAssigned(ctx, bob)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, task.ID, assigned[0].ID)

	// A third identity sees the task in neither view.
	created, err = svc.ListCreated(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, created)
	assigned, err = svc.ListAssigned(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, assigned)

	// The creator's assigned view and the assignee's created view stay empty.
	assigned, err = svc.ListAssigned(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, assigned)
	created, err = svc.ListCreated(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestUpdateCreatorOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", AssignedTo: bob.IdentityID})
	require.NoError(t, err)

	// The assignee may not update.
	_, err = svc.Update(ctx, bob, task.ID, UpdateInput{Status: strPtr("completed")})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Update(ctx, alice, task.ID, UpdateInput{Status: strPtr("completed"), Priority: strPtr("low")})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, PriorityLow, got.Priority)
	assert.Equal(t, "t", got.Title)

	// Admin override applies.
	got, err = svc.Update(ctx, admin, task.ID, UpdateInput{Title: strPtr("t2")})
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Title)
}

func TestUpdateReassign(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", AssignedTo: bob.IdentityID})
	require.NoError(t, err)

	got, err := svc.Update(ctx, alice, task.ID, UpdateInput{AssignedTo: strPtr(carol.IdentityID)})
	require.NoError(t, err)
	assert.Equal(t, "carol", got.AssignedTo.Username)

	assigned, err := svc.ListAssigned(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, assigned)
	assigned, err = svc.ListAssigned(ctx, carol)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	_, err = svc.Update(ctx, alice, task.ID, UpdateInput{AssignedTo: strPtr("01GHOST")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateImageReplacesStored(t *testing.T) {
	svc, mediaStore := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, alice, CreateInput{
		Title: "t", Description: "d", AssignedTo: bob.IdentityID,
		Image: &media.File{Filename: "one.png", ContentType: "image/png", Data: []byte("a")},
	})
	require.NoError(t, err)
	first := task.Image.ID

	got, err := svc.Update(ctx, alice, task.ID, UpdateInput{
		Image: &media.File{Filename: "two.png", ContentType: "image/png", Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, got.Image.ID)
	assert.Equal(t, []string{first}, mediaStore.destroyed)
}

func TestUpdateImagePlaceholderNotReleased(t *testing.T) {
	svc, mediaStore := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, CreateInput{Title: "t", Description: "d", AssignedTo: bob.IdentityID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice, task.ID, UpdateInput{
		Image: &media.File{Filename: "one.png", ContentType: "image/png", Data: []byte("a")},
	})
	require.NoError(t, err)
	// The placeholder is an external URL and carries nothing to release.
	assert.Empty(t, mediaStore.destroyed)
}

func TestDeleteCreatorOnly(t *testing.T) {
	svc, mediaStore := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, CreateInput{
		Title: "t", Description: "d", AssignedTo: bob.IdentityID,
		Image: &media.File{Filename: "one.png", ContentType: "image/png", Data: []byte("a")},
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, bob, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(ctx, alice, task.ID))
	assert.Equal(t, []string{task.Image.ID}, mediaStore.destroyed)

	err = svc.Delete(ctx, alice, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCascadeCollectsImagesAndDeletes(t *testing.T) {
	store := NewInMemory(resolveKnown)
	mediaStore := &fakeMedia{}
	svc, err := NewService(store, mediaStore, resolveKnown)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, CreateInput{
		Title: "mine", Description: "d", AssignedTo: alice.IdentityID,
		Image: &media.File{Filename: "a.png", ContentType: "image/png", Data: []byte("a")},
	})
	require.NoError(t, err)
	assigned, err := svc.Create(ctx, bob, CreateInput{
		Title: "theirs", Description: "d", AssignedTo: alice.IdentityID,
		Image: &media.File{Filename: "b.png", ContentType: "image/png", Data: []byte("b")},
	})
	require.NoError(t, err)
	unrelated, err := svc.Create(ctx, bob, CreateInput{Title: "keep", Description: "d", AssignedTo: carol.IdentityID})
	require.NoError(t, err)

	refs, err := store.ImageRefsFor(ctx, alice.IdentityID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{created.Image.ID, assigned.Image.ID}, refs)

	require.NoError(t, store.DeleteFor(ctx, alice.IdentityID))
	_, err = store.Find(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Find(ctx, assigned.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Find(ctx, unrelated.ID)
	assert.NoError(t, err)
}

func TestParseStatusAndPriority(t *testing.T) {
	status, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, ErrValidation)

	priority, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, priority)
	_, err = ParsePriority("critical")
	assert.ErrorIs(t, err, ErrValidation)
}
