package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/ids"
	"taskdeck.org/internal/mail"
	"taskdeck.org/internal/media"
	"taskdeck.org/internal/obs"
)

// Service orchestrates the account lifecycle: registration, login, OAuth
// login, profile updates, the password-reset protocol, logout revocation and
// the cascading account delete. External collaborators (store, token codec,
// media store, mail relay) are injected; the service holds no ambient state.
type Service struct {
	store  Store
	codec  *auth.TokenCodec
	media  media.Store
	mailer mail.Mailer

	resetBaseURL string
	now          func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithResetBaseURL sets the frontend prefix reset links are built from.
func WithResetBaseURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.resetBaseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the account lifecycle service.
func NewService(store Store, codec *auth.TokenCodec, mediaStore media.Store, mailer mail.Mailer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity: store is required")
	}
	if codec == nil {
		return nil, errors.New("identity: token codec is required")
	}
	if mailer == nil {
		mailer = mail.LogMailer{}
	}
	s := &Service{
		store:        store,
		codec:        codec,
		media:        mediaStore,
		mailer:       mailer,
		resetBaseURL: "http://localhost:3000",
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a new identity. Username and email collisions both map to
// ErrConflict; the password is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Identity, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ident := &Identity{
		ID:             ids.New(),
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: media.Image{URL: media.DefaultProfileURL},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// Login authenticates by email and password and issues a session token.
// Unknown email and wrong password collapse into one Unauthorized outcome.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", time.Time{}, ErrUnauthorized
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.VerifyPassword(ident.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrUnauthorized
	}

	token, expiresAt, err := s.codec.Issue(ident.ID, ident.TokenVersion)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return ident, token, expiresAt, nil
}

// OAuthLogin trusts the relayed provider profile: an existing email logs in,
// anything else becomes a fresh identity with a random password it will never
// see. A later forgot-password flow may still set a usable one.
func (s *Service) OAuthLogin(ctx context.Context, displayName, email, photoURL string) (*Identity, string, time.Time, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || displayName == "" {
		return nil, "", time.Time{}, fmt.Errorf("%w: displayName and email are required", ErrValidation)
	}

	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, "", time.Time{}, err
		}
		ident, err = s.createOAuthIdentity(ctx, displayName, email, photoURL)
		if err != nil {
			return nil, "", time.Time{}, err
		}
	}

	token, expiresAt, err := s.codec.Issue(ident.ID, ident.TokenVersion)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return ident, token, expiresAt, nil
}

func (s *Service) createOAuthIdentity(ctx context.Context, displayName, email, photoURL string) (*Identity, error) {
	password, err := auth.RandomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	picture := media.Image{URL: media.DefaultProfileURL}
	if photoURL != "" {
		// The provider's avatar is hot-linked, not copied into our store, so
		// it carries no object id and nothing to release later.
		picture = media.Image{URL: photoURL}
	}

	now := s.now().UTC()
	ident := &Identity{
		ID:             ids.New(),
		Username:       displayName,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: picture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

// Get loads one identity by id.
func (s *Service) Get(ctx context.Context, id string) (*Identity, error) {
	return s.store.Find(ctx, id)
}

// List returns every identity.
func (s *Service) List(ctx context.Context) ([]*Identity, error) {
	return s.store.List(ctx)
}

// Directory returns the public username/picture listing.
func (s *Service) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	return s.store.Directory(ctx)
}

// UpdateProfile applies a partial profile change for the actor. Any subset of
// username, password pair and picture may be supplied.
func (s *Service) UpdateProfile(ctx context.Context, actorID string, upd ProfileUpdate) (*Identity, error) {
	ident, err := s.store.Find(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(upd.Username); username != "" && username != ident.Username {
		existing, err := s.store.FindByUsername(ctx, username)
		if err == nil && existing.ID != ident.ID {
			return nil, fmt.Errorf("%w: username already exists", ErrConflict)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		ident.Username = username
	}

	passwordChanged := false
	if upd.OldPassword != "" || upd.NewPassword != "" {
		if upd.OldPassword == "" || upd.NewPassword == "" {
			return nil, fmt.Errorf("%w: both old and new password are required", ErrValidation)
		}
		if err := auth.VerifyPassword(ident.PasswordHash, upd.OldPassword); err != nil {
			return nil, fmt.Errorf("%w: invalid old password", ErrUnauthorized)
		}
		hash, err := auth.HashPassword(upd.NewPassword)
		if err != nil {
			return nil, err
		}
		ident.PasswordHash = hash
		passwordChanged = true
	}

	if upd.Image != nil {
		img, err := s.replaceImage(ctx, ident.Username, ident.ProfilePicture, *upd.Image)
		if err != nil {
			return nil, err
		}
		ident.ProfilePicture = img
	}

	ident.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProfile(ctx, ident); err != nil {
		return nil, err
	}

	if passwordChanged {
		// Revoke every outstanding session; the client re-authenticates with
		// the new password.
		if _, err := s.store.BumpTokenVersion(ctx, ident.ID); err != nil {
			return nil, err
		}
	}
	return ident, nil
}

// replaceImage releases the previous stored object best-effort, then uploads
// the replacement. A failed release is logged and never blocks the upload.
func (s *Service) replaceImage(ctx context.Context, username string, old media.Image, upload media.File) (media.Image, error) {
	if s.media == nil {
		return media.Image{}, errors.New("identity: media store is not configured")
	}
	if old.Stored() {
		if err := s.media.Destroy(ctx, old.ID); err != nil {
			obs.LogError("release previous profile image failed", map[string]any{
				"image_id": old.ID,
				"error":    err.Error(),
			})
		}
	}
	key := media.ObjectKey(username, "profile_pictures", upload.Filename)
	return s.media.Upload(ctx, key, upload.Data, upload.ContentType)
}

// Logout revokes every outstanding session token for the identity.
func (s *Service) Logout(ctx context.Context, actorID string) error {
	_, err := s.store.BumpTokenVersion(ctx, actorID)
	return err
}

// ForgotPassword issues a reset token and emails the reset link. Only the
// token's hash is persisted.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	ident, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, storedHash, expiresAt, err := auth.NewResetToken(s.now())
	if err != nil {
		return err
	}
	if err := s.store.SetResetToken(ctx, ident.ID, storedHash, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.resetBaseURL, raw)
	return s.mailer.SendPasswordReset(ctx, ident.Email, resetURL)
}

// ResetPassword consumes a raw reset token. The store clears the token and
// bumps the token version atomically with the password write, so the token is
// single-use and old sessions die.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrValidation)
	}
	ident, err := s.store.FindByResetToken(ctx, auth.HashResetToken(rawToken), s.now().UTC())
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.CompletePasswordReset(ctx, ident.ID, hash)
}

// DeleteCascade removes the identity and everything it owns: profile picture
// and task images are released best-effort first, then notes, tasks and the
// identity row go in one transaction. Serves both self-deletion and the
// admin delete-by-id path.
func (s *Service) DeleteCascade(ctx context.Context, id string) error {
	ident, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}

	if s.media != nil {
		if ident.ProfilePicture.Stored() {
			if err := s.media.Destroy(ctx, ident.ProfilePicture.ID); err != nil {
				obs.LogError("release profile image failed", map[string]any{
					"identity": ident.ID,
					"image_id": ident.ProfilePicture.ID,
					"error":    err.Error(),
				})
			}
		}
		refs, err := s.store.TaskImageRefs(ctx, ident.ID)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if err := s.media.Destroy(ctx, ref); err != nil {
				obs.LogError("release task image failed", map[string]any{
					"identity": ident.ID,
					"image_id": ref,
					"error":    err.Error(),
				})
			}
		}
	}

	return s.store.DeleteCascade(ctx, ident.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
