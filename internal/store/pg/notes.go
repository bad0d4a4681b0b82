package pg

import (
	"context"
	"database/sql"
	"errors"

	"taskdeck.org/internal/notes"
)

// NoteStore implements notes.Store on PostgreSQL. Owner usernames are joined
// at read time.
type NoteStore struct {
	db *sql.DB
}

var _ notes.Store = (*NoteStore)(nil)

const noteColumns = `n.id, n.title, n.content, n.completed,
	n.owner_id, i.username,
	n.created_at, n.updated_at`

func scanNote(row interface{ Scan(...any) error }) (*notes.Note, error) {
	var note notes.Note
	err := row.Scan(
		&note.ID, &note.Title, &note.Content, &note.Completed,
		&note.Owner.ID, &note.Owner.Username,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteStore) Create(ctx context.Context, note *notes.Note) error {
	_, err := s.db.ExecContext(ctx, `
		insert into notes (id, title, content, completed, owner_id, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, note.ID, note.Title, note.Content, note.Completed, note.Owner.ID, note.CreatedAt, note.UpdatedAt)
	return err
}

func (s *NoteStore) Find(ctx context.Context, id string) (*notes.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+noteColumns+`
		from notes n join identities i on i.id = n.owner_id
		where n.id=$1
	`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notes.ErrNotFound
	}
	return note, err
}

func (s *NoteStore) ListByOwner(ctx context.Context, ownerID string) ([]*notes.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+noteColumns+`
		from notes n join identities i on i.id = n.owner_id
		where n.owner_id=$1
		order by n.id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notes.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

func (s *NoteStore) Update(ctx context.Context, note *notes.Note) error {
	res, err := s.db.ExecContext(ctx, `
		update notes set title=$2, content=$3, completed=$4, updated_at=$5
		where id=$1
	`, note.ID, note.Title, note.Content, note.Completed, note.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res, notes.ErrNotFound)
}

func (s *NoteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from notes where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, notes.ErrNotFound)
}
