package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/media"
)

// IdentityStore implements identity.Store on PostgreSQL.
type IdentityStore struct {
	db *sql.DB
}

var _ identity.Store = (*IdentityStore)(nil)

const identityColumns = `id, username, email, password_hash,
	profile_image_id, profile_image_url, is_admin,
	reset_token_hash, reset_expires_at, token_version,
	created_at, updated_at`

func scanIdentity(row interface{ Scan(...any) error }) (*identity.Identity, error) {
	var ident identity.Identity
	var resetExpires sql.NullTime
	err := row.Scan(
		&ident.ID, &ident.Username, &ident.Email, &ident.PasswordHash,
		&ident.ProfilePicture.ID, &ident.ProfilePicture.URL, &ident.Admin,
		&ident.ResetTokenHash, &resetExpires, &ident.TokenVersion,
		&ident.CreatedAt, &ident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resetExpires.Valid {
		t := resetExpires.Time
		ident.ResetExpiresAt = &t
	}
	return &ident, nil
}

func (s *IdentityStore) Create(ctx context.Context, ident *identity.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		insert into identities
			(id, username, email, password_hash, profile_image_id, profile_image_url, is_admin, token_version, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, ident.ID, ident.Username, ident.Email, ident.PasswordHash,
		ident.ProfilePicture.ID, ident.ProfilePicture.URL, ident.Admin,
		ident.TokenVersion, ident.CreatedAt, ident.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username or email already exists", identity.ErrConflict)
	}
	return err
}

func (s *IdentityStore) Find(ctx context.Context, id string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from identities where id=$1`, id)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	return ident, err
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from identities where lower(email)=lower($1)`, email)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	return ident, err
}

func (s *IdentityStore) FindByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from identities where username=$1`, username)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	return ident, err
}

func (s *IdentityStore) List(ctx context.Context) ([]*identity.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `select `+identityColumns+` from identities order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*identity.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

func (s *IdentityStore) Directory(ctx context.Context) ([]identity.DirectoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, username, profile_image_id, profile_image_url
		from identities order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []identity.DirectoryEntry
	for rows.Next() {
		var entry identity.DirectoryEntry
		var img media.Image
		if err := rows.Scan(&entry.ID, &entry.Username, &img.ID, &img.URL); err != nil {
			return nil, err
		}
		entry.ProfilePicture = img
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *IdentityStore) UpdateProfile(ctx context.Context, ident *identity.Identity) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set username=$2, password_hash=$3, profile_image_id=$4, profile_image_url=$5, updated_at=$6
		where id=$1
	`, ident.ID, ident.Username, ident.PasswordHash,
		ident.ProfilePicture.ID, ident.ProfilePicture.URL, ident.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username already exists", identity.ErrConflict)
	}
	if err != nil {
		return err
	}
	return requireRow(res, identity.ErrNotFound)
}

func (s *IdentityStore) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `
		update identities set token_version = token_version + 1
		where id=$1
		returning token_version
	`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, identity.ErrNotFound
	}
	return version, err
}

func (s *IdentityStore) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update identities set reset_token_hash=$2, reset_expires_at=$3
		where id=$1
	`, id, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	return requireRow(res, identity.ErrNotFound)
}

func (s *IdentityStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+identityColumns+` from identities
		where reset_token_hash=$1 and reset_token_hash <> '' and reset_expires_at > $2
	`, tokenHash, now)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrResetToken
	}
	return ident, err
}

func (s *IdentityStore) CompletePasswordReset(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set password_hash=$2, reset_token_hash='', reset_expires_at=null,
			token_version = token_version + 1
		where id=$1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res, identity.ErrNotFound)
}

func (s *IdentityStore) TaskImageRefs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select image_id from tasks
		where (created_by=$1 or assigned_to=$1) and image_id <> ''
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *IdentityStore) DeleteCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from notes where owner_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from tasks where created_by=$1 or assigned_to=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from identities where id=$1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res, identity.ErrNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
